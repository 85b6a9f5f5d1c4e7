package dbc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dbckit/internal/format"
	"github.com/joshuapare/dbckit/pkg/types"
)

func TestDecodeBasic(t *testing.T) {
	raw := buildTable(3, 0, [][]uint32{{1, 100, 0}, {2, 200, 1}}, []byte("\x00BB\x00"))

	tbl, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tbl.Header.RecordCount)
	assert.Equal(t, 3, tbl.FieldCount())
	require.Len(t, tbl.Records, 2)
	assert.Equal(t, Record{1, 100, 0}, tbl.Records[0])
	assert.Equal(t, Record{2, 200, 1}, tbl.Records[1])
	assert.Equal(t, []byte("\x00BB\x00"), tbl.Strings)
	assert.Empty(t, tbl.Diagnostics)

	s, ok := tbl.StringAt(tbl.Records[1][2])
	require.True(t, ok)
	assert.Equal(t, "BB", s)
}

func TestRoundTripIsByteExact(t *testing.T) {
	raw := buildTable(4, 0, [][]uint32{
		{1, 0xFFFFFFFF, 0x3F800000, 1},
		{2, 7, 0, 6},
		{3, 0, 0, 0},
	}, []byte("\x00first\x00second\x00"))

	tbl, err := Decode(raw)
	require.NoError(t, err)
	out, err := Encode(tbl)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestRoundTripEmptyTable(t *testing.T) {
	raw := buildTable(5, 0, nil, nil)
	tbl, err := Decode(raw)
	require.NoError(t, err)
	assert.Empty(t, tbl.Records)
	out, err := Encode(tbl)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestDecodeDoesNotAliasInput(t *testing.T) {
	raw := buildTable(1, 0, [][]uint32{{9}}, []byte("a\x00"))
	tbl, err := Decode(raw)
	require.NoError(t, err)
	for i := range raw {
		raw[i] = 0
	}
	assert.Equal(t, Record{9}, tbl.Records[0])
	assert.Equal(t, []byte("a\x00"), tbl.Strings)
}

func TestDecodeStructuralErrors(t *testing.T) {
	good := buildTable(2, 0, [][]uint32{{1, 2}, {3, 4}}, []byte("\x00abc\x00"))

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", good[:format.HeaderSize-1], format.ErrTruncated},
		{"bad magic", append([]byte("WDB2"), good[4:]...), format.ErrSignatureMismatch},
		{"truncated records", good[:format.HeaderSize+12], format.ErrTruncated},
		{"truncated strings", good[:len(good)-2], format.ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecodeWideRecordIsSoftMismatch(t *testing.T) {
	raw := buildTable(2, 12, [][]uint32{{1, 2}, {3, 4}}, []byte("\x00"))

	tbl, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, Record{1, 2}, tbl.Records[0])
	assert.Equal(t, Record{3, 4}, tbl.Records[1])
	require.Len(t, tbl.Diagnostics, 1)
	assert.Equal(t, types.KindRecordLayout, tbl.Diagnostics[0].Kind)
	assert.Equal(t, types.SevWarning, tbl.Diagnostics[0].Severity)

	// encoded output is normalized to packed records
	out, err := Encode(tbl)
	require.NoError(t, err)
	again, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), again.Header.RecordSize)
	assert.Equal(t, tbl.Records, again.Records)
	assert.Empty(t, again.Diagnostics)
}

func TestDecodeNarrowRecordFails(t *testing.T) {
	raw := buildTable(3, 0, [][]uint32{{1, 2, 3}}, nil)
	format.PutU32(raw, format.WDBCRecordSizeOffset, 8)

	_, err := Decode(raw)
	require.ErrorIs(t, err, format.ErrRecordLayout)
}

func TestDecodeNarrowRecordWithoutRecords(t *testing.T) {
	raw := buildTable(3, 8, nil, []byte("\x00"))

	tbl, err := Decode(raw)
	require.NoError(t, err)
	assert.Empty(t, tbl.Records)
	assert.Equal(t, []byte("\x00"), tbl.Strings)
	require.Len(t, tbl.Diagnostics, 1)
	assert.Equal(t, types.KindRecordLayout, tbl.Diagnostics[0].Kind)
	assert.Equal(t, types.SevWarning, tbl.Diagnostics[0].Severity)

	out, err := Encode(tbl)
	require.NoError(t, err)
	hdr, err := format.ParseHeader(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), hdr.RecordSize)
}

func TestDecodeTrailingBytes(t *testing.T) {
	raw := buildTable(1, 0, [][]uint32{{1}}, []byte("\x00"))
	raw = append(raw, 0xAA, 0xBB)

	tbl, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, tbl.Diagnostics, 1)
	assert.Equal(t, types.KindTrailingData, tbl.Diagnostics[0].Kind)
}

func TestEncodeRecomputesCounts(t *testing.T) {
	tbl := &Table{
		Header:  format.Header{RecordCount: 99, FieldCount: 2, RecordSize: 8, StringBlockSize: 99},
		Records: []Record{{1, 2}},
		Strings: []byte("\x00x\x00"),
	}
	out, err := Encode(tbl)
	require.NoError(t, err)

	hdr, err := format.ParseHeader(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), hdr.RecordCount)
	assert.Equal(t, uint32(3), hdr.StringBlockSize)
	assert.Len(t, out, format.HeaderSize+8+3)
}

func TestEncodeRejectsRecordLengthMismatch(t *testing.T) {
	tbl := &Table{
		Header:  format.Header{FieldCount: 3, RecordSize: 12},
		Records: []Record{{1, 2, 3}, {4, 5}},
	}
	_, err := Encode(tbl)
	require.ErrorIs(t, err, format.ErrRecordLength)
	assert.Contains(t, err.Error(), "record 1")
}

func TestStringAtBounds(t *testing.T) {
	tbl := &Table{Strings: []byte("ab\x00cd")}
	s, ok := tbl.StringAt(0)
	assert.True(t, ok)
	assert.Equal(t, "ab", s)
	s, ok = tbl.StringAt(1)
	assert.True(t, ok)
	assert.Equal(t, "b", s)
	_, ok = tbl.StringAt(3)
	assert.False(t, ok, "unterminated run")
	_, ok = tbl.StringAt(40)
	assert.False(t, ok)
}
