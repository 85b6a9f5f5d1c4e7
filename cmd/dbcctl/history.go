package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dbckit/internal/buildcache"
)

var historyLimit int

func init() {
	cmd := newHistoryCmd()
	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to show (0 = all)")
	rootCmd.AddCommand(cmd)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded apply runs, newest first",
		Long: `The history command lists the apply runs recorded in the build cache.
It requires cache_dir to be configured.

Example:
  dbcctl history
  dbcctl history --limit 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory()
		},
	}
	return cmd
}

func runHistory() error {
	dir := settings().CacheDir
	if dir == "" {
		return errors.New("no cache_dir configured")
	}
	cache, err := buildcache.Open(dir)
	if err != nil {
		return err
	}
	defer cache.Close()

	runs, err := cache.Runs(historyLimit)
	if err != nil {
		return err
	}

	if jsonOut {
		if runs == nil {
			runs = []buildcache.Run{}
		}
		return printJSON(runs)
	}

	if len(runs) == 0 {
		printInfo("No runs recorded\n")
		return nil
	}
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "failed: " + r.Error
		}
		printInfo("%s  %s  %d table(s), %d patched, %d cached, %d warning(s), %s  %s\n",
			r.ID, r.Started.Local().Format(time.DateTime), len(r.Tables), r.Patched, r.CacheHits,
			r.Warnings, r.Duration.Round(time.Millisecond), status)
		for _, doc := range r.Documents {
			printVerbose("    %s\n", doc)
		}
	}
	return nil
}
