/*
Package dbc decodes and encodes WDBC binary tables.

A table is a 20-byte header, an array of equal-size records, and a block of
null-terminated strings:

	0x00  "WDBC"
	0x04  u32 record count
	0x08  u32 field count
	0x0C  u32 record size (bytes)
	0x10  u32 string block size (bytes)
	0x14  record data
	....  string block

Every record field is an untyped 32-bit little-endian word. Whether a word is
an unsigned integer, a signed integer, a float bit pattern, or an offset into
the string block is decided by whoever reads or writes it, never by this
package.

# Decoding

	t, err := dbc.Decode(data)
	if err != nil {
	    return err // truncated input, bad magic, impossible layout
	}
	for _, rec := range t.Records {
	    fmt.Println(rec[0])
	}

Decode never rejects a table whose record size disagrees with its field
count as long as each record can still hold field_count words; the mismatch
is reported in Table.Diagnostics instead.

# Encoding

	out, err := dbc.Encode(t)

Encode recomputes the record count and string block size from the data it
is given. The only encode-time failure is a record whose length differs
from the header's field count.

Decoding a well-formed table and encoding it again reproduces the input
byte for byte.
*/
package dbc
