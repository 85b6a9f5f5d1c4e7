package dbc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshuapare/dbckit/internal/patchset"
)

// ResolveTables maps every table named in set to a file in dir. Names match
// case-insensitively; a table with no matching file maps to dir/<name> as
// written in the first patch that named it, so the later read reports it
// missing. A missing dir matches nothing.
func ResolveTables(set *patchset.Set, dir string) ([]string, error) {
	files := make(map[string]string)
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read table dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key := patchset.TableKey(e.Name())
		if _, dup := files[key]; !dup {
			files[key] = filepath.Join(dir, e.Name())
		}
	}

	keys := set.Tables()
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if path, ok := files[key]; ok {
			out = append(out, path)
			continue
		}
		out = append(out, filepath.Join(dir, set.Name(key)))
	}
	return out, nil
}
