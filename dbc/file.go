package dbc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshuapare/dbckit/internal/mmfile"
)

// Open reads and decodes the table at path. The file is mapped only for the
// duration of the decode.
func Open(path string) (t *Table, err error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", path, err)
	}
	defer func() {
		if cerr := cleanup(); cerr != nil && err == nil {
			err = fmt.Errorf("unmap table %s: %w", path, cerr)
		}
	}()

	t, err = Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode table %s: %w", path, err)
	}
	return t, nil
}

// WriteFile encodes t and writes it to path atomically: the bytes go to a
// temporary file in the same directory which is then renamed over path.
func WriteFile(path string, t *Table) error {
	data, err := Encode(t)
	if err != nil {
		return fmt.Errorf("encode table %s: %w", path, err)
	}
	return WriteBytes(path, data)
}

// WriteBytes atomically replaces path with data.
func WriteBytes(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
