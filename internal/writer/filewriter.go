// Package writer exposes sinks for patched table output.
package writer

import (
	"fmt"
	"os"
	"path/filepath"

	codec "github.com/joshuapare/dbckit/dbc"
)

// Sink receives encoded tables by file name.
type Sink interface {
	WriteTable(name string, data []byte) error
}

// DirWriter writes each table to Dir/name atomically.
type DirWriter struct {
	Dir string
}

// Prepare creates Dir if missing.
func (w *DirWriter) Prepare() error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// Path returns where name is written.
func (w *DirWriter) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// WriteTable writes data via temp file + rename.
func (w *DirWriter) WriteTable(name string, data []byte) error {
	return codec.WriteBytes(w.Path(name), data)
}
