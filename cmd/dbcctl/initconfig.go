package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dbckit/internal/config"
)

var initForce bool

func init() {
	cmd := newInitConfigCmd()
	cmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
	rootCmd.AddCommand(cmd)
}

func newInitConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a config file with default settings",
		Long: `The init-config command writes the default configuration to path, or to
./` + config.DefaultFileName + ` when no path is given.

Example:
  dbcctl init-config
  dbcctl init-config mod/dbcctl.yaml --force`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitConfig(args)
		},
	}
	return cmd
}

func runInitConfig(args []string) error {
	path := config.DefaultFileName
	if len(args) == 1 {
		path = args[0]
	}
	if config.ConfigExists(path) && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	printInfo("✓ Wrote %s\n", path)
	return nil
}
