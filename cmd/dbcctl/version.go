package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dbckit/pkg/dbc"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{annotationNoConfig: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dbcctl %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		fmt.Printf("  engine: %s\n", dbc.EngineVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
