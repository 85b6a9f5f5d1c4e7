package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dbckit/internal/buildcache"
	"github.com/joshuapare/dbckit/internal/metrics"
	"github.com/joshuapare/dbckit/internal/writer"
	"github.com/joshuapare/dbckit/pkg/dbc"
	"github.com/joshuapare/dbckit/pkg/types"
)

var (
	applyTables        []string
	applyTableDir      string
	applyPatchDir      string
	applySchemaDirs    []string
	applyOutDir        string
	applyCacheDir      string
	applyNoCache       bool
	applyParallelism   int
	applyNoReserve     bool
	applyEncoding      string
	applyMetricsFile   string
	applyFailOnWarning bool
	applyDryRun        bool
)

// errWarnings is returned when --fail-on-warning is set and the run
// reported warnings.
var errWarnings = errors.New("run reported warnings")

func init() {
	cmd := newApplyCmd()
	cmd.Flags().StringSliceVarP(&applyTables, "table", "t", nil, "Table file to process (repeatable; default: tables named by patches)")
	cmd.Flags().StringVar(&applyTableDir, "table-dir", "", "Directory holding the input tables")
	cmd.Flags().StringVar(&applyPatchDir, "patch-dir", "", "Directory searched for patch documents")
	cmd.Flags().StringSliceVar(&applySchemaDirs, "schema-dir", nil, "Schema directory (repeatable, searched in order)")
	cmd.Flags().StringVarP(&applyOutDir, "out", "o", "", "Output directory")
	cmd.Flags().StringVar(&applyCacheDir, "cache-dir", "", "Build cache directory")
	cmd.Flags().BoolVar(&applyNoCache, "no-cache", false, "Disable the build cache")
	cmd.Flags().IntVarP(&applyParallelism, "parallel", "p", 0, "Tables processed concurrently")
	cmd.Flags().BoolVar(&applyNoReserve, "no-reserve-empty-string", false, "Do not reserve offset 0 for \"\" in empty string blocks")
	cmd.Flags().StringVar(&applyEncoding, "encoding", "", "Encoding of patch documents without a byte order mark")
	cmd.Flags().StringVar(&applyMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	cmd.Flags().BoolVar(&applyFailOnWarning, "fail-on-warning", false, "Exit non-zero when any warning is reported")
	cmd.Flags().BoolVarP(&applyDryRun, "dry-run", "n", false, "Patch in memory and report without writing tables")
	rootCmd.AddCommand(cmd)
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [patch.yaml...]",
		Short: "Apply patch documents to tables",
		Long: `The apply command patches every table named by the patch documents and
writes the results to the output directory. Without arguments, every .yaml
and .yml file in the patch directory is applied, ordered by file name.

Example:
  dbcctl apply
  dbcctl apply patches/10-spells.yaml patches/20-items.yaml
  dbcctl apply --table dbc/Spell.dbc --out build --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, args)
		},
	}
	return cmd
}

// applyOptions merges the configuration with flags the user set.
func applyOptions(cmd *cobra.Command, args []string) dbc.ApplyOptions {
	c := settings()
	opts := dbc.ApplyOptions{
		Tables:             applyTables,
		TableDir:           c.TableDir,
		Patches:            args,
		PatchDir:           c.PatchDir,
		SchemaDirs:         c.SchemaDirs,
		OutDir:             c.OutDir,
		Parallelism:        c.Parallelism,
		ReserveEmptyString: c.ReserveEmptyString,
		InputEncoding:      c.InputEncoding,
	}
	flags := cmd.Flags()
	if flags.Changed("table-dir") {
		opts.TableDir = applyTableDir
	}
	if flags.Changed("patch-dir") {
		opts.PatchDir = applyPatchDir
	}
	if flags.Changed("schema-dir") {
		opts.SchemaDirs = applySchemaDirs
	}
	if flags.Changed("out") {
		opts.OutDir = applyOutDir
	}
	if flags.Changed("parallel") {
		opts.Parallelism = applyParallelism
	}
	if flags.Changed("no-reserve-empty-string") {
		opts.ReserveEmptyString = !applyNoReserve
	}
	if flags.Changed("encoding") {
		opts.InputEncoding = applyEncoding
	}
	return opts
}

func runApply(cmd *cobra.Command, args []string) error {
	c := settings()
	opts := applyOptions(cmd, args)

	cacheDir := c.CacheDir
	if cmd.Flags().Changed("cache-dir") {
		cacheDir = applyCacheDir
	}
	if applyDryRun {
		opts.Output = &writer.MemWriter{}
	}
	if cacheDir != "" && !applyNoCache {
		printVerbose("Using build cache: %s\n", cacheDir)
		cache, err := buildcache.Open(cacheDir)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts.Cache = cache
	}

	metricsFile := c.MetricsFile
	if cmd.Flags().Changed("metrics-file") {
		metricsFile = applyMetricsFile
	}
	if metricsFile != "" {
		opts.Metrics = metrics.New()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	run, err := dbc.Apply(ctx, opts)
	if err != nil {
		return err
	}

	if opts.Metrics != nil {
		if err := opts.Metrics.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		printVerbose("Metrics written to %s\n", metricsFile)
	}

	if jsonOut {
		if err := printJSON(run); err != nil {
			return err
		}
	} else {
		printRun(run, opts.OutDir)
	}

	if applyFailOnWarning && len(run.Report.Warnings()) > 0 {
		return errWarnings
	}
	return nil
}

func printRun(run *dbc.Run, outDir string) {
	printInfo("\nApplied %d document(s) to %d table(s) in %s\n",
		len(run.Documents), len(run.Tables), run.Duration.Round(time.Millisecond))
	for _, doc := range run.Documents {
		printVerbose("  document: %s\n", doc)
	}

	printInfo("\n")
	for _, tr := range run.Tables {
		a := tr.Applied
		line := fmt.Sprintf("  %-24s ops %-4d updated %-4d inserted %-4d copied %-4d skipped %-4d records %d -> %d",
			tr.Name, tr.Ops, a.Updated, a.Inserted, a.Copied, a.Skipped, tr.RecordsBefore, tr.RecordsAfter)
		if tr.Cached {
			line += "  (cached)"
		}
		printInfo("%s\n", line)
		for _, s := range tr.Interned {
			printVerbose("    + %q\n", s)
		}
	}

	if warns := run.Report.Warnings(); len(warns) > 0 {
		printInfo("\nWarnings (%d):\n", len(warns))
		for _, d := range warns {
			printInfo("  %s\n", d)
		}
	}
	if run.Report.Summary.Info > 0 {
		printVerbose("\nNotes (%d):\n", run.Report.Summary.Info)
		for _, d := range run.Report.Diagnostics {
			if d.Severity == types.SevInfo {
				printVerbose("  %s\n", d)
			}
		}
	}

	if applyDryRun {
		printInfo("\nDry run: no tables written\n")
	} else {
		printInfo("\nOutput: %s\n", outDir)
	}
	if run.ID != "" {
		printVerbose("Run: %s\n", run.ID)
	}
	printInfo("✓ Apply complete\n")
}
