package dbc

import (
	"path/filepath"
	"testing"

	"github.com/joshuapare/dbckit/internal/testutil"
)

var tableBytes = testutil.TableBytes

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	return testutil.WriteFile(t, dir, name, data)
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	return testutil.ReadFile(t, path)
}

// workspace lays out dbc/, patches/, schema/ and build/ under a temp dir.
type workspace struct {
	root    string
	tables  string
	patches string
	schema  string
	out     string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	return workspace{
		root:    root,
		tables:  filepath.Join(root, "dbc"),
		patches: filepath.Join(root, "patches"),
		schema:  filepath.Join(root, "schema"),
		out:     filepath.Join(root, "build"),
	}
}

func (w workspace) options() ApplyOptions {
	return ApplyOptions{
		TableDir:           w.tables,
		PatchDir:           w.patches,
		SchemaDirs:         []string{w.schema},
		OutDir:             w.out,
		Parallelism:        2,
		ReserveEmptyString: true,
	}
}
