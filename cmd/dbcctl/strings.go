package main

import (
	"bytes"
	"strings"

	"github.com/spf13/cobra"

	codec "github.com/joshuapare/dbckit/dbc"
	"github.com/joshuapare/dbckit/internal/format"
)

var stringsFilter string

func init() {
	cmd := newStringsCmd()
	cmd.Flags().StringVarP(&stringsFilter, "filter", "f", "", "Only list strings containing this text (case-insensitive)")
	rootCmd.AddCommand(cmd)
}

func newStringsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strings <table>",
		Short: "List the string block of a table",
		Long: `The strings command lists every null-terminated string in a table's string
block together with the offset records use to refer to it.

Example:
  dbcctl strings dbc/Spell.dbc
  dbcctl strings dbc/Spell.dbc --filter fire --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStrings(args)
		},
	}
	return cmd
}

type stringEntry struct {
	Offset uint32 `json:"offset"`
	Value  string `json:"value"`
}

// segments splits a string block at each terminator. A trailing run without
// a terminator is not a string and is left out.
func segments(block []byte) []stringEntry {
	var out []stringEntry
	for off := 0; off < len(block); {
		end := bytes.IndexByte(block[off:], format.StringTerminator)
		if end < 0 {
			break
		}
		out = append(out, stringEntry{Offset: uint32(off), Value: string(block[off : off+end])})
		off += end + 1
	}
	return out
}

func runStrings(args []string) error {
	t, err := codec.Open(args[0])
	if err != nil {
		return err
	}

	needle := strings.ToLower(stringsFilter)
	entries := make([]stringEntry, 0)
	for _, e := range segments(t.Strings) {
		if needle != "" && !strings.Contains(strings.ToLower(e.Value), needle) {
			continue
		}
		entries = append(entries, e)
	}

	if jsonOut {
		return printJSON(entries)
	}
	for _, e := range entries {
		printInfo("%8d  %q\n", e.Offset, e.Value)
	}
	printVerbose("%d string(s), %d byte block\n", len(entries), len(t.Strings))
	return nil
}
