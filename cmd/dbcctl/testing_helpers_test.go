package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/dbckit/internal/config"
	"github.com/joshuapare/dbckit/internal/testutil"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	// Save original stdout
	origStdout := os.Stdout

	// Create a pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	// Redirect stdout to pipe
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	// Run function
	fnErr := fn()

	// Close write end and restore stdout
	w.Close()
	os.Stdout = origStdout

	return string(<-done), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}

// resetFlags restores the global flags and configuration between tests.
func resetFlags(t *testing.T) {
	t.Helper()
	quiet, verbose, jsonOut = false, false, false
	cfg = config.DefaultConfig()
	applyTables, applyFailOnWarning, applyNoCache, applyDryRun = nil, false, false, false
	dumpOffset, dumpLimit, dumpKey, dumpStrings = 0, 0, -1, false
	stringsFilter = ""
	historyLimit = 20
	initForce = false
}

var (
	tableBytes    = testutil.TableBytes
	writeTestFile = testutil.WriteFile
)

// testProject lays out a table, a schema and a patch under a temp dir and
// points the configuration at it.
func testProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "dbc"), "Spell.dbc",
		tableBytes(3, "\x00Fireball\x00", []uint32{1, 1, 10}, []uint32{2, 0, 20}))
	writeTestFile(t, filepath.Join(root, "schema"), "Spell.dbc.yaml", []byte("[ID, Name, Power]\n"))
	writeTestFile(t, filepath.Join(root, "patches"), "10-spells.yaml", []byte(`Spell.dbc:
  - type: update
    key: 2
    updates:
      Name: "Frostbolt"
      Bogus: 1
  - type: copy
    key: 1
    values:
      ID: 3
      Power: 30
`))

	cfg = config.DefaultConfig()
	cfg.TableDir = filepath.Join(root, "dbc")
	cfg.PatchDir = filepath.Join(root, "patches")
	cfg.SchemaDirs = []string{filepath.Join(root, "schema")}
	cfg.OutDir = filepath.Join(root, "build")
	return root
}
