package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dbckit/internal/config"
	"github.com/joshuapare/dbckit/internal/testutil"
)

func TestInfoCommand(t *testing.T) {
	resetFlags(t)
	root := testProject(t)
	path := filepath.Join(root, "dbc", "Spell.dbc")

	out, err := captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"Records: 2", "Fields: 3", "Record size: 12 bytes", "2 distinct strings", "✓ Layout consistent"})

	jsonOut = true
	out, err = captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	assertJSON(t, out)
	assertContains(t, out, []string{`"records": 2`, `"string_block_size": 10`})
}

func TestInfoCommandTrailingData(t *testing.T) {
	resetFlags(t)
	path := writeTestFile(t, t.TempDir(), "Odd.dbc", append(tableBytes(1, "", []uint32{1}), 0xFF))

	out, err := captureOutput(t, func() error { return runInfo([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"! 1 bytes after the string block"})
}

func TestInfoCommandMissingFile(t *testing.T) {
	resetFlags(t)
	err := runInfo([]string{filepath.Join(t.TempDir(), "None.dbc")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "None.dbc")
}

func TestDumpCommand(t *testing.T) {
	tests := []struct {
		name        string
		limit       int
		key         int64
		strs        bool
		json        bool
		wantContain []string
		wantMissing []string
	}{
		{
			name:        "all records with schema labels",
			key:         -1,
			wantContain: []string{"#0 ID=1 Name=1 Power=10", "#1 ID=2 Name=0 Power=20"},
		},
		{
			name:        "limit",
			key:         -1,
			limit:       1,
			wantContain: []string{"#0 "},
			wantMissing: []string{"#1 "},
		},
		{
			name:        "key with strings",
			key:         1,
			strs:        true,
			wantContain: []string{`Name=1 "Fireball"`},
			wantMissing: []string{"#1 "},
		},
		{
			name:        "json",
			key:         -1,
			json:        true,
			wantContain: []string{`"index": 1`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			root := testProject(t)
			dumpLimit, dumpKey, dumpStrings, jsonOut = tt.limit, tt.key, tt.strs, tt.json

			out, err := captureOutput(t, func() error {
				return runDump([]string{filepath.Join(root, "dbc", "Spell.dbc")})
			})
			require.NoError(t, err)
			if tt.json {
				assertJSON(t, out)
			}
			assertContains(t, out, tt.wantContain)
			assertNotContains(t, out, tt.wantMissing)
		})
	}
}

func TestDumpWithoutSchema(t *testing.T) {
	resetFlags(t)
	path := testutil.SetupTestTable(t, "Item.dbc", 2, "", []uint32{5, 6})

	out, err := captureOutput(t, func() error { return runDump([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"#0 [0]=5 [1]=6"})
}

func TestStringsCommand(t *testing.T) {
	resetFlags(t)
	root := testProject(t)
	path := filepath.Join(root, "dbc", "Spell.dbc")

	out, err := captureOutput(t, func() error { return runStrings([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{`       0  ""`, `       1  "Fireball"`})

	stringsFilter = "FIRE"
	jsonOut = true
	out, err = captureOutput(t, func() error { return runStrings([]string{path}) })
	require.NoError(t, err)
	assertJSON(t, out)
	assertContains(t, out, []string{`"offset": 1`})
	assertNotContains(t, out, []string{`"offset": 0`})
}

func TestSegments(t *testing.T) {
	assert.Nil(t, segments(nil))
	assert.Equal(t, []stringEntry{{0, "a"}, {2, ""}, {3, "bc"}}, segments([]byte("a\x00\x00bc\x00dangling")))
}

func TestInitConfigCommand(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "dbcctl.yaml")

	out, err := captureOutput(t, func() error { return runInitConfig([]string{path}) })
	require.NoError(t, err)
	assertContains(t, out, []string{"Wrote"})

	loaded, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "build"), loaded.OutDir)

	err = runInitConfig([]string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	initForce = true
	require.NoError(t, os.WriteFile(path, []byte("parallelism: -1\n"), 0o644))
	_, err = captureOutput(t, func() error { return runInitConfig([]string{path}) })
	require.NoError(t, err)
	_, err = config.LoadConfig(path)
	require.NoError(t, err)
}

func TestLoadConfigFallback(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	c, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), c)

	require.NoError(t, os.WriteFile(config.DefaultFileName, []byte("parallelism: 9\n"), 0o644))
	c, err = loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Parallelism)

	_, err = loadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
