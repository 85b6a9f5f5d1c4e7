package dbc

import (
	"github.com/joshuapare/dbckit/internal/format"
)

// buildTable assembles raw table bytes for tests. recordSize of 0 means
// fields*4.
func buildTable(fields, recordSize int, records [][]uint32, pool []byte) []byte {
	if recordSize == 0 {
		recordSize = fields * format.FieldSize
	}
	hdr := format.Header{
		RecordCount:     uint32(len(records)),
		FieldCount:      uint32(fields),
		RecordSize:      uint32(recordSize),
		StringBlockSize: uint32(len(pool)),
	}
	out := format.AppendHeader(nil, hdr)
	for _, rec := range records {
		start := len(out)
		for _, w := range rec {
			out = format.AppendU32(out, w)
		}
		for len(out)-start < recordSize {
			out = append(out, 0xEE)
		}
	}
	return append(out, pool...)
}
