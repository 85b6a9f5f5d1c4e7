package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dbckit/internal/config"
	"github.com/joshuapare/dbckit/internal/logger"
	"github.com/joshuapare/dbckit/internal/metrics"
	"github.com/joshuapare/dbckit/internal/patchset"
	"github.com/joshuapare/dbckit/internal/patchtext"
	"github.com/joshuapare/dbckit/internal/schema"
	"github.com/joshuapare/dbckit/internal/server"
)

var (
	serveBind string
	servePort int
)

func init() {
	cmd := newServeCmd()
	cmd.Flags().StringVar(&serveBind, "bind", "", "Address to bind")
	cmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on")
	rootCmd.AddCommand(cmd)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [patch.yaml...]",
		Short: "Serve the patch engine over HTTP",
		Long: `The serve command loads patch documents and schemas once, then patches
tables posted to /api/v1/tables/{name}. Prometheus metrics are served at
/metrics.

Example:
  dbcctl serve --port 9200
  curl --data-binary @dbc/Spell.dbc localhost:9200/api/v1/tables/Spell.dbc > Spell.dbc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args)
		},
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	c := settings()
	addr := config.Server{Bind: c.Server.Bind, Port: c.Server.Port}
	if cmd.Flags().Changed("bind") {
		addr.Bind = serveBind
	}
	if cmd.Flags().Changed("port") {
		addr.Port = servePort
	}

	paths := args
	if len(paths) == 0 {
		found, err := patchset.Discover(c.PatchDir)
		if err != nil {
			return err
		}
		paths = found
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	set, err := patchset.Load(ctx, paths, patchset.Options{
		Parse:       patchtext.Options{InputEncoding: c.InputEncoding},
		Parallelism: c.Parallelism,
	})
	if err != nil {
		return err
	}
	st := set.Stats()
	printInfo("Loaded %d document(s): %d operation(s) for %d table(s)\n", st.Documents, st.Ops, st.Tables)
	for _, d := range set.Diagnostics() {
		logger.Diagnostic(d)
		printInfo("  ! %s\n", d)
	}

	srv := server.New(set, schema.NewLoader(c.SchemaDirs...), server.Config{
		Addr:               addr.Addr(),
		ReserveEmptyString: c.ReserveEmptyString,
	}, metrics.New())

	printInfo("Listening on http://%s\n", addr.Addr())
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
