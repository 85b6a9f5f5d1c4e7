// Package testutil builds table fixtures for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/dbckit/internal/format"
)

// TableBytes encodes a packed table: record size is fields*4 and the string
// block is pool verbatim. Records are written as given, so a record with the
// wrong length produces a deliberately inconsistent file.
//
// Example:
//
//	data := testutil.TableBytes(2, "\x00Fireball\x00", []uint32{1, 1}, []uint32{2, 0})
func TableBytes(fields int, pool string, records ...[]uint32) []byte {
	b := format.AppendHeader(nil, format.Header{
		RecordCount:     uint32(len(records)),
		FieldCount:      uint32(fields),
		RecordSize:      uint32(fields * format.FieldSize),
		StringBlockSize: uint32(len(pool)),
	})
	for _, rec := range records {
		for _, w := range rec {
			b = format.AppendU32(b, w)
		}
	}
	return append(b, pool...)
}

// WriteFile writes data to dir/name, creating dir, and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// ReadFile returns the contents of path or fails the test.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return data
}

// SetupTestTable writes a table built by TableBytes to a temporary directory
// and returns its path.
func SetupTestTable(t *testing.T, name string, fields int, pool string, records ...[]uint32) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), name, TableBytes(fields, pool, records...))
}
