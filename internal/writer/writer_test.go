package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirWriter(t *testing.T) {
	w := &DirWriter{Dir: filepath.Join(t.TempDir(), "out", "nested")}
	require.NoError(t, w.Prepare())
	require.NoError(t, w.WriteTable("Spell.dbc", []byte("one")))
	require.NoError(t, w.WriteTable("Spell.dbc", []byte("two")))

	data, err := os.ReadFile(w.Path("Spell.dbc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)

	entries, err := os.ReadDir(w.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files left behind")
}

func TestDirWriterMissingDir(t *testing.T) {
	w := &DirWriter{Dir: filepath.Join(t.TempDir(), "absent")}
	assert.Error(t, w.WriteTable("Spell.dbc", []byte("x")))
}

func TestMemWriter(t *testing.T) {
	var w MemWriter
	buf := []byte("abc")
	require.NoError(t, w.WriteTable("b.dbc", buf))
	require.NoError(t, w.WriteTable("a.dbc", nil))
	buf[0] = 'X'

	got, ok := w.Table("b.dbc")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
	assert.Equal(t, []string{"a.dbc", "b.dbc"}, w.Names())

	_, ok = w.Table("c.dbc")
	assert.False(t, ok)
}
