package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	codec "github.com/joshuapare/dbckit/dbc"
	"github.com/joshuapare/dbckit/internal/schema"
)

var (
	dumpOffset  int
	dumpLimit   int
	dumpKey     int64
	dumpStrings bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVar(&dumpOffset, "offset", 0, "Skip this many records")
	cmd.Flags().IntVarP(&dumpLimit, "limit", "n", 0, "Maximum records to print (0 = all)")
	cmd.Flags().Int64VarP(&dumpKey, "key", "k", -1, "Only print records whose first field equals this key")
	cmd.Flags().BoolVarP(&dumpStrings, "strings", "s", false, "Show the string at each word that is a valid string offset")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <table>",
		Short: "Print table records",
		Long: `The dump command prints the records of a WDBC table, one per line. When a
schema for the table is found in the configured schema directories, fields
are labelled with their names.

Example:
  dbcctl dump dbc/Spell.dbc --limit 20
  dbcctl dump dbc/Spell.dbc --key 133 --strings
  dbcctl dump dbc/Spell.dbc --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

// dumpRecord is the JSON shape of one dumped record.
type dumpRecord struct {
	Index  int      `json:"index"`
	Fields []uint32 `json:"fields"`
}

func runDump(args []string) error {
	path := args[0]
	t, err := codec.Open(path)
	if err != nil {
		return err
	}

	var labels []string
	sch, diags := schema.NewLoader(settings().SchemaDirs...).Load(filepath.Base(path))
	for _, d := range diags {
		printVerbose("schema: %s\n", d.Message)
	}
	if sch != nil {
		labels = sch.Labels(t.FieldCount())
	}

	var out []dumpRecord
	for i, rec := range t.Records {
		if i < dumpOffset {
			continue
		}
		if dumpKey >= 0 && (len(rec) == 0 || int64(rec[0]) != dumpKey) {
			continue
		}
		out = append(out, dumpRecord{Index: i, Fields: rec})
		if dumpLimit > 0 && len(out) == dumpLimit {
			break
		}
	}

	if jsonOut {
		if out == nil {
			out = []dumpRecord{}
		}
		return printJSON(out)
	}

	for _, r := range out {
		printInfo("%s\n", formatRecord(t, r, labels))
	}
	printVerbose("%d of %d record(s)\n", len(out), len(t.Records))
	return nil
}

func formatRecord(t *codec.Table, r dumpRecord, labels []string) string {
	parts := make([]string, len(r.Fields))
	for i, w := range r.Fields {
		v := fmt.Sprintf("%d", w)
		if dumpStrings {
			v = describeWord(t, w)
		}
		if i < len(labels) && labels[i] != "" {
			parts[i] = labels[i] + "=" + v
		} else {
			parts[i] = fmt.Sprintf("[%d]=%s", i, v)
		}
	}
	return fmt.Sprintf("#%d %s", r.Index, strings.Join(parts, " "))
}
