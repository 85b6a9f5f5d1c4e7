package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dbckit/internal/config"
	"github.com/joshuapare/dbckit/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string

	// cfg is the effective configuration, loaded before each command runs.
	cfg       *config.Config
	logCloser io.Closer
)

// annotationNoConfig marks commands that must run without reading a config
// file, so a broken file can still be replaced.
const annotationNoConfig = "dbcctl/no-config"

var rootCmd = &cobra.Command{
	Use:   "dbcctl",
	Short: "Patch WDBC client database tables from YAML documents",
	Long: `dbcctl applies declarative YAML patch documents to WDBC (.dbc) client
database tables. It updates, inserts and copies records, interns new strings
into each table's string block, and writes the patched tables to an output
directory, reporting anything it had to skip.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[annotationNoConfig] != "" {
			cfg = config.DefaultConfig()
			return nil
		}
		return setup()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./"+config.DefaultFileName+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and initializes logging.
func setup() error {
	c, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg = c

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}
	logCloser, err = logger.Init(logger.Options{
		Enabled: !quiet || cfg.Logging.Dir != "",
		Level:   level,
		Format:  cfg.Logging.Format,
		Output:  os.Stderr,
		LogDir:  cfg.Logging.Dir,
	})
	return err
}

// loadConfig reads path, or the default file in the working directory when
// path is empty. Without either, defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	if config.ConfigExists(config.DefaultFileName) {
		return config.LoadConfig(config.DefaultFileName)
	}
	return config.DefaultConfig(), nil
}

// settings returns the loaded configuration, or defaults when a command
// runs without the root pre-run hook.
func settings() *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatSize renders a byte count for humans.
func formatSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d bytes", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	}
}
