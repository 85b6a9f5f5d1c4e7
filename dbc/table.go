package dbc

import (
	"fmt"
	"math"

	"github.com/joshuapare/dbckit/internal/buf"
	"github.com/joshuapare/dbckit/internal/format"
	"github.com/joshuapare/dbckit/pkg/types"
)

// Record is one row of a table: exactly FieldCount untyped words.
type Record []uint32

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	copy(out, r)
	return out
}

// Table is a decoded WDBC table.
type Table struct {
	// Header as read from the input. RecordCount and StringBlockSize are
	// informational after decoding; Encode derives them from Records and
	// Strings.
	Header format.Header

	// Records in file order.
	Records []Record

	// Strings is the raw string block.
	Strings []byte

	// Diagnostics holds non-fatal layout findings from Decode.
	Diagnostics []types.Diagnostic
}

// FieldCount returns the number of words per record.
func (t *Table) FieldCount() int {
	return int(t.Header.FieldCount)
}

// StringAt returns the null-terminated string starting at off. ok is false
// when off is outside the block or the run is not terminated.
func (t *Table) StringAt(off uint32) (string, bool) {
	if uint64(off) >= uint64(len(t.Strings)) {
		return "", false
	}
	for i := int(off); i < len(t.Strings); i++ {
		if t.Strings[i] == format.StringTerminator {
			return string(t.Strings[off:i]), true
		}
	}
	return "", false
}

// Decode parses a complete WDBC table from b. The returned table does not
// alias b, so b may be unmapped or reused afterwards.
func Decode(b []byte) (*Table, error) {
	hdr, err := format.ParseHeader(b)
	if err != nil {
		return nil, err
	}

	t := &Table{Header: hdr}

	if !hdr.LayoutConsistent() {
		// a narrow record is only unreadable when there are records to read
		if uint64(hdr.RecordSize) < hdr.PackedRecordSize() && hdr.RecordCount > 0 {
			return nil, fmt.Errorf("records: size %d cannot hold %d fields: %w",
				hdr.RecordSize, hdr.FieldCount, format.ErrRecordLayout)
		}
		t.Diagnostics = append(t.Diagnostics, types.Diagnostic{
			Severity: types.SevWarning,
			Kind:     types.KindRecordLayout,
			Op:       -1,
			Message: fmt.Sprintf("record size %d does not match field count %d (expected %d); records are re-encoded packed",
				hdr.RecordSize, hdr.FieldCount, hdr.PackedRecordSize()),
		})
	}

	if hdr.RecordSize == 0 && hdr.RecordCount > 0 {
		return nil, fmt.Errorf("records: %d records of zero size: %w", hdr.RecordCount, format.ErrRecordLayout)
	}

	recordsEnd, err := hdr.RecordsEnd()
	if err != nil {
		return nil, err
	}
	if recordsEnd > len(b) {
		have := (len(b) - format.RecordsOffset) / int(hdr.RecordSize)
		return nil, fmt.Errorf("records: need %d bytes at offset 0x%X, file has %d (%d of %d records present): %w",
			recordsEnd-format.RecordsOffset, format.RecordsOffset, len(b), have, hdr.RecordCount, format.ErrTruncated)
	}

	fields := int(hdr.FieldCount)
	size := int(hdr.RecordSize)
	t.Records = make([]Record, hdr.RecordCount)
	// one backing array for all records keeps decode to two allocations
	words := make([]uint32, int(hdr.RecordCount)*fields)
	for i := range t.Records {
		base := format.RecordsOffset + i*size
		rec := words[i*fields : (i+1)*fields : (i+1)*fields]
		for f := range rec {
			rec[f] = format.ReadU32(b, base+f*format.FieldSize)
		}
		t.Records[i] = rec
	}

	stringsEnd, err := buf.CheckSpan(len(b), recordsEnd, int(hdr.StringBlockSize))
	if err != nil {
		return nil, fmt.Errorf("string block: need %d bytes at offset 0x%X: %v: %w",
			hdr.StringBlockSize, recordsEnd, err, format.ErrTruncated)
	}
	t.Strings = make([]byte, hdr.StringBlockSize)
	copy(t.Strings, b[recordsEnd:stringsEnd])

	if extra := len(b) - stringsEnd; extra > 0 {
		t.Diagnostics = append(t.Diagnostics, types.Diagnostic{
			Severity: types.SevInfo,
			Kind:     types.KindTrailingData,
			Op:       -1,
			Message:  fmt.Sprintf("%d bytes after the string block at offset 0x%X ignored", extra, stringsEnd),
		})
	}

	return t, nil
}

// Encode serializes t. The record count and string block size are taken from
// t.Records and t.Strings; the record size is written as FieldCount*4 since
// records carry no padding.
func Encode(t *Table) ([]byte, error) {
	fields := t.FieldCount()
	if uint64(len(t.Records)) > math.MaxUint32 {
		return nil, fmt.Errorf("records: %d records: %w", len(t.Records), format.ErrTooLarge)
	}
	if uint64(len(t.Strings)) > math.MaxUint32 {
		return nil, fmt.Errorf("string block: %d bytes: %w", len(t.Strings), format.ErrTooLarge)
	}
	recordSize := t.Header.PackedRecordSize()
	if recordSize > math.MaxUint32 {
		return nil, fmt.Errorf("records: %d fields: %w", fields, format.ErrTooLarge)
	}

	for i, rec := range t.Records {
		if len(rec) != fields {
			return nil, fmt.Errorf("record %d: expected %d fields, got %d: %w", i, fields, len(rec), format.ErrRecordLength)
		}
	}

	hdr := format.Header{
		RecordCount:     uint32(len(t.Records)),
		FieldCount:      t.Header.FieldCount,
		RecordSize:      uint32(recordSize),
		StringBlockSize: uint32(len(t.Strings)),
	}

	out := make([]byte, format.HeaderSize+len(t.Records)*int(recordSize)+len(t.Strings))
	format.AppendHeader(out[:0], hdr)
	off := format.RecordsOffset
	for _, rec := range t.Records {
		for _, w := range rec {
			format.PutU32(out, off, w)
			off += format.FieldSize
		}
	}
	copy(out[off:], t.Strings)
	return out, nil
}
