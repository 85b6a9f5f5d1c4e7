package patchtext

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/pkg/types"
)

func TestParseTableMapping(t *testing.T) {
	doc := `
Spell.dbc:
  - type: update
    key: 133
    key_column: ID
    updates:
      SpellIconID: 12
      Name: "Fireball"
      Speed: 1.5
      Passive: true
  - type: insert
    values:
      0: 90000
`
	patches, err := Parse([]byte(doc), "a.yaml", Options{})
	require.NoError(t, err)
	require.Len(t, patches, 1)

	p := patches[0]
	assert.Equal(t, "Spell.dbc", p.Table)
	assert.Equal(t, "a.yaml", p.Source)
	assert.Equal(t, 2, p.Line)
	require.Len(t, p.Ops, 2)

	up := p.Ops[0]
	assert.Equal(t, patch.OpUpdate, up.Type)
	assert.Equal(t, uint32(133), up.Key)
	assert.True(t, up.HasKey)
	assert.Equal(t, patch.ParseRef("ID"), up.KeyColumn)
	assert.Equal(t, "a.yaml", up.Source)
	assert.Equal(t, []patch.Assignment{
		{Field: patch.ParseRef("SpellIconID"), Value: patch.Int(12)},
		{Field: patch.ParseRef("Name"), Value: patch.String("Fireball")},
		{Field: patch.ParseRef("Speed"), Value: patch.Float(1.5)},
		{Field: patch.ParseRef("Passive"), Value: patch.Bool(true)},
	}, up.Assignments)

	ins := p.Ops[1]
	assert.Equal(t, patch.OpInsert, ins.Type)
	assert.False(t, ins.HasKey)
	assert.Equal(t, []patch.Assignment{{Field: patch.Index(0), Value: patch.Int(90000)}}, ins.Assignments)
}

func TestParseExplicitShapes(t *testing.T) {
	single := `
dbc: Item.dbc
changes:
  - {type: copy, key: 1, key_column: 0, updates: {0: 2}}
`
	patches, err := Parse([]byte(single), "s.yaml", Options{})
	require.NoError(t, err)
	require.Len(t, patches, 1)
	assert.Equal(t, "Item.dbc", patches[0].Table)
	assert.Equal(t, patch.OpCopy, patches[0].Ops[0].Type)
	assert.Equal(t, patch.Index(0), patches[0].Ops[0].KeyColumn)

	list := `
- dbc: Item.dbc
  changes:
    - {type: update, key: 1, values: {1: 5}}
- dbc: Spell.dbc
  changes: []
`
	patches, err = Parse([]byte(list), "l.yaml", Options{})
	require.NoError(t, err)
	require.Len(t, patches, 2)
	assert.Equal(t, "Item.dbc", patches[0].Table)
	assert.Equal(t, "Spell.dbc", patches[1].Table)
	assert.Empty(t, patches[1].Ops)
}

func TestParseEmptyDocuments(t *testing.T) {
	for _, doc := range []string{"", "   \n", "# only a comment\n", "{}\n", "~\n"} {
		patches, err := Parse([]byte(doc), "e.yaml", Options{})
		require.NoError(t, err, "doc %q", doc)
		assert.Empty(t, patches, "doc %q", doc)
	}
}

func TestParseRepeatedSections(t *testing.T) {
	doc := `# header comment
SpellVisual.dbc:
  - {type: update, key: 1, updates: {1: 1}}
Item.dbc:
  - {type: update, key: 2, updates: {1: 2}}
spellvisual.DBC:
  - {type: update, key: 3, updates: {1: 3}}
`
	patches, err := Parse([]byte(doc), "r.yaml", Options{})
	require.NoError(t, err)
	require.Len(t, patches, 3)
	assert.Equal(t, "SpellVisual.dbc", patches[0].Table)
	assert.Equal(t, "Item.dbc", patches[1].Table)
	assert.Equal(t, "spellvisual.DBC", patches[2].Table)
	assert.Equal(t, uint32(3), patches[2].Ops[0].Key)
	assert.Equal(t, 6, patches[2].Line)
	assert.Less(t, patches[0].Section, patches[1].Section)
	assert.Less(t, patches[1].Section, patches[2].Section)
}

func TestParseValueKinds(t *testing.T) {
	doc := `
T.dbc:
  - type: update
    key: 1
    updates:
      a: -5
      b: 18446744073709551615
      c: 0x10
      d: "123"
      e: false
`
	patches, err := Parse([]byte(doc), "v.yaml", Options{})
	require.NoError(t, err)
	got := patches[0].Ops[0].Assignments
	require.Len(t, got, 5)
	assert.Equal(t, patch.Int(-5), got[0].Value)
	assert.Equal(t, patch.Uint(math.MaxUint64), got[1].Value)
	assert.Equal(t, patch.Int(16), got[2].Value)
	assert.Equal(t, patch.String("123"), got[3].Value)
	assert.Equal(t, patch.Bool(false), got[4].Value)
}

func TestParseNegativeColumns(t *testing.T) {
	doc := "T.dbc:\n  - type: update\n    key: 1\n    key_column: -2\n    updates: {-1: 5, 1: 7}\n"
	patches, err := Parse([]byte(doc), "a.yaml", Options{})
	require.NoError(t, err)
	require.Len(t, patches, 1)
	require.Len(t, patches[0].Ops, 1)

	op := patches[0].Ops[0]
	assert.Equal(t, patch.ParseRef("-2"), op.KeyColumn)
	assert.Equal(t, []patch.Assignment{
		{Field: patch.ParseRef("-1"), Value: patch.Int(5)},
		{Field: patch.Index(1), Value: patch.Int(7)},
	}, op.Assignments)
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	doc := `dbc: Spell.dbc
comment: raise the level cap
changes:
  - type: update
    key: 1
    note: hotfix
    updates: {1: 2}
`
	patches, err := Parse([]byte(doc), "a.yaml", Options{})
	require.NoError(t, err)
	require.Len(t, patches, 1)
	require.Len(t, patches[0].Ops, 1)
	assert.Equal(t, []patch.Assignment{{Field: patch.Index(1), Value: patch.Int(2)}}, patches[0].Ops[0].Assignments)

	diags := patches[0].Diagnostics
	require.Len(t, diags, 2)
	assert.Equal(t, "comment", diags[0].Field)
	assert.Equal(t, "note", diags[1].Field)
	for _, d := range diags {
		assert.Equal(t, types.KindUnknownKey, d.Kind)
		assert.Equal(t, types.SevWarning, d.Severity)
		assert.Equal(t, "Spell.dbc", d.Table)
		assert.Equal(t, "a.yaml", d.Source)
	}
	assert.Contains(t, diags[1].Message, "line 6")

	byTable, err := Parse([]byte("A.dbc:\n  - {type: insert, why: x}\nB.dbc: []\n"), "b.yaml", Options{})
	require.NoError(t, err)
	require.Len(t, byTable, 2)
	require.Len(t, byTable[0].Diagnostics, 1)
	assert.Equal(t, "A.dbc", byTable[0].Diagnostics[0].Table)
	assert.Empty(t, byTable[1].Diagnostics)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"non-string table key", "123: []\n", "invalid table key"},
		{"both assignment keys", "T.dbc:\n  - {type: update, key: 1, updates: {}, values: {}}\n", "both"},
		{"update without key", "T.dbc:\n  - {type: update, updates: {1: 1}}\n", "requires"},
		{"unknown type", "T.dbc:\n  - {type: delete, key: 1}\n", "unknown change type"},
		{"missing type", "T.dbc:\n  - {key: 1}\n", "without"},
		{"negative key", "T.dbc:\n  - {type: update, key: -1}\n", "out of range"},
		{"key too large", "T.dbc:\n  - {type: update, key: 4294967296}\n", "out of range"},
		{"string key", "T.dbc:\n  - {type: update, key: abc}\n", "must be an integer"},
		{"list value", "T.dbc:\n  - {type: update, key: 1, updates: {a: [1]}}\n", "scalar"},
		{"null value", "T.dbc:\n  - {type: update, key: 1, updates: {a: ~}}\n", "unsupported value"},
		{"changes not a list", "T.dbc: 5\n", "must be a list"},
		{"top-level scalar", "hello\n", "unexpected scalar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), "bad.yaml", Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Contains(t, err.Error(), "bad.yaml")
		})
	}
}

func TestParseErrorLineIsAbsolute(t *testing.T) {
	doc := "A.dbc:\n  - {type: update, key: 1}\nB.dbc:\n  - {type: bogus, key: 1}\n"
	_, err := Parse([]byte(doc), "pos.yaml", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pos.yaml:4:")
}

func TestParseYAMLSyntaxError(t *testing.T) {
	_, err := Parse([]byte("T.dbc:\n  - {type: update\n"), "syn.yaml", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syn.yaml")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte("T.dbc:\n  - {type: insert, key: 4}\n"), 0o644))

	patches, err := ParseFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, patches, 1)
	assert.Equal(t, path, patches[0].Ops[0].Source)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"), Options{})
	require.Error(t, err)
}
