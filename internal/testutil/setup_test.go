package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dbckit/internal/format"
)

func TestTableBytes(t *testing.T) {
	b := TableBytes(2, "\x00a\x00", []uint32{1, 2})
	require.Len(t, b, format.HeaderSize+8+3)

	h, err := format.ParseHeader(b)
	require.NoError(t, err)
	assert.Equal(t, format.Header{RecordCount: 1, FieldCount: 2, RecordSize: 8, StringBlockSize: 3}, h)
	assert.Equal(t, uint32(2), format.ReadU32(b, format.RecordsOffset+4))
	assert.Equal(t, []byte("\x00a\x00"), b[len(b)-3:])
}

func TestSetupTestTable(t *testing.T) {
	path := SetupTestTable(t, "Spell.dbc", 1, "", []uint32{7})
	assert.Equal(t, TableBytes(1, "", []uint32{7}), ReadFile(t, path))
}
