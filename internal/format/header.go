package format

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/dbckit/internal/buf"
)

// Header captures the fixed 20-byte WDBC header.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   4    'W' 'D' 'B' 'C'
//	 0x004   4    Record count
//	 0x008   4    Field count (32-bit words per record)
//	 0x00C   4    Record size in bytes
//	 0x010   4    String block size in bytes
//
// All fields are little-endian.
type Header struct {
	RecordCount     uint32
	FieldCount      uint32
	RecordSize      uint32
	StringBlockSize uint32
}

// ParseHeader validates and extracts the WDBC header from b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("wdbc header: need %d bytes, have %d: %w", HeaderSize, len(b), ErrTruncated)
	}
	if !bytes.Equal(b[:WDBCSignatureSize], WDBCSignature) {
		return Header{}, fmt.Errorf("wdbc header: magic %q: %w", b[:WDBCSignatureSize], ErrSignatureMismatch)
	}
	return Header{
		RecordCount:     buf.U32LE(b[WDBCRecordCountOffset:]),
		FieldCount:      buf.U32LE(b[WDBCFieldCountOffset:]),
		RecordSize:      buf.U32LE(b[WDBCRecordSizeOffset:]),
		StringBlockSize: buf.U32LE(b[WDBCStringSizeOffset:]),
	}, nil
}

// AppendHeader appends the encoded header to dst.
func AppendHeader(dst []byte, h Header) []byte {
	dst = append(dst, WDBCSignature...)
	dst = AppendU32(dst, h.RecordCount)
	dst = AppendU32(dst, h.FieldCount)
	dst = AppendU32(dst, h.RecordSize)
	dst = AppendU32(dst, h.StringBlockSize)
	return dst
}

// PackedRecordSize is the record size implied by the field count.
func (h Header) PackedRecordSize() uint64 {
	return uint64(h.FieldCount) * FieldSize
}

// LayoutConsistent reports whether RecordSize == FieldCount*4.
func (h Header) LayoutConsistent() bool {
	return uint64(h.RecordSize) == h.PackedRecordSize()
}

// RecordsEnd returns the byte offset just past the record data, checking the
// count*size arithmetic for overflow.
func (h Header) RecordsEnd() (int, error) {
	size, ok := buf.MulOverflowSafe(int(h.RecordCount), int(h.RecordSize))
	if !ok {
		return 0, fmt.Errorf("records: %d * %d overflows: %w", h.RecordCount, h.RecordSize, ErrTruncated)
	}
	end, ok := buf.AddOverflowSafe(RecordsOffset, size)
	if !ok {
		return 0, fmt.Errorf("records: end offset overflows: %w", ErrTruncated)
	}
	return end, nil
}
