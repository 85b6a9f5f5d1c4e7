// Package format houses the low-level layout of WDBC table files. The goal is
// to keep the byte-level parsing focused and allocation-light, and
// independent from the record/patch API so higher-level packages can work
// with tables in a more ergonomic form.
package format

var (
	// WDBCSignature is the four-byte signature at the start of every table.
	// Layout:
	//   0x00  'W' 'D' 'B' 'C'
	WDBCSignature = []byte{'W', 'D', 'B', 'C'}
)

const (
	// WDBCSignatureSize is the length of the magic tag.
	WDBCSignatureSize = 4

	// HeaderSize is the size of the WDBC header in bytes: the magic followed by
	// four little-endian u32 fields.
	HeaderSize = WDBCSignatureSize + 4*FieldSize

	// FieldSize is the width of a single record word. Every field of a vanilla
	// WDBC record is one 32-bit little-endian word.
	FieldSize = 4

	// Header field offsets.
	WDBCSignatureOffset   = 0x00 // 4 bytes, "WDBC"
	WDBCRecordCountOffset = 0x04 // u32
	WDBCFieldCountOffset  = 0x08 // u32
	WDBCRecordSizeOffset  = 0x0C // u32, bytes per record
	WDBCStringSizeOffset  = 0x10 // u32, bytes in the string block

	// RecordsOffset is where record data begins.
	RecordsOffset = HeaderSize

	// StringTerminator ends every string in the string block.
	StringTerminator = 0x00

	// EmptyStringOffset is the conventional string block offset of "".
	EmptyStringOffset = 0

	// MaxWord is the largest value a record word can hold.
	MaxWord = 1<<32 - 1
)
