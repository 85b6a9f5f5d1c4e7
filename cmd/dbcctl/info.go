package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	codec "github.com/joshuapare/dbckit/dbc"
	"github.com/joshuapare/dbckit/dbc/strpool"
	"github.com/joshuapare/dbckit/pkg/types"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <table>",
		Short: "Validate a table header and report basic metadata",
		Long: `The info command decodes a WDBC table and displays its header, record
layout and string block statistics, along with any layout findings.

Example:
  dbcctl info dbc/Spell.dbc
  dbcctl info dbc/Spell.dbc --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

// tableInfo is the JSON shape of the info command.
type tableInfo struct {
	File            string             `json:"file"`
	Size            int64              `json:"size"`
	Records         int                `json:"records"`
	Fields          int                `json:"fields"`
	RecordSize      uint32             `json:"record_size"`
	StringBlockSize int                `json:"string_block_size"`
	Strings         int                `json:"strings"`
	Diagnostics     []types.Diagnostic `json:"diagnostics"`
}

func runInfo(args []string) error {
	path := args[0]
	printVerbose("Opening table: %s\n", path)

	t, err := codec.Open(path)
	if err != nil {
		return err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}

	info := tableInfo{
		File:            path,
		Size:            stat.Size(),
		Records:         len(t.Records),
		Fields:          t.FieldCount(),
		RecordSize:      t.Header.RecordSize,
		StringBlockSize: len(t.Strings),
		Strings:         len(strpool.BuildIndex(t.Strings)),
		Diagnostics:     t.Diagnostics,
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("\nTable Information:\n")
	printInfo("  File: %s\n", info.File)
	printInfo("  Size: %s\n", formatSize(info.Size))
	printInfo("  Records: %d\n", info.Records)
	printInfo("  Fields: %d\n", info.Fields)
	printInfo("  Record size: %d bytes\n", info.RecordSize)
	printInfo("  String block: %s (%d distinct strings)\n", formatSize(int64(info.StringBlockSize)), info.Strings)

	printInfo("\nValidation:\n")
	if len(t.Diagnostics) == 0 {
		printInfo("  ✓ Layout consistent\n")
		return nil
	}
	for _, d := range t.Diagnostics {
		printInfo("  ! %s\n", d.Message)
	}
	return nil
}

// describeWord renders w with its string when w is a valid string offset.
func describeWord(t *codec.Table, w uint32) string {
	if s, ok := t.StringAt(w); ok && w > 0 && s != "" {
		return fmt.Sprintf("%d %q", w, s)
	}
	return fmt.Sprintf("%d", w)
}
