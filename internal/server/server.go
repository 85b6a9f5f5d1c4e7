// Package server exposes the patch engine over HTTP. The patch set and
// schemas are loaded once at start; clients post table bytes and receive
// the patched table.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joshuapare/dbckit/internal/logger"
	"github.com/joshuapare/dbckit/internal/metrics"
	"github.com/joshuapare/dbckit/internal/patchset"
	"github.com/joshuapare/dbckit/internal/schema"
)

const shutdownTimeout = 10 * time.Second

// Server holds the API server state
type Server struct {
	set     *patchset.Set
	schemas *schema.Loader
	config  Config
	metrics *metrics.Metrics
}

// New creates a server for set. m may be nil, in which case a private
// registry is used.
func New(set *patchset.Set, schemas *schema.Loader, config Config, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.New()
	}
	if config.MaxTableSize <= 0 {
		config.MaxTableSize = DefaultMaxTableSize
	}
	if schemas == nil {
		schemas = schema.NewLoader()
	}
	return &Server{set: set, schemas: schemas, config: config, metrics: m}
}

// Handler returns the router with all routes configured.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", s.metrics.Handler())

	m := s.metrics
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/tables", m.InstrumentHandler("GET", "/api/v1/tables", s.handleListTables))
		r.Post("/tables/{name}", m.InstrumentHandler("POST", "/api/v1/tables/{name}", s.handlePatchTable))
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", s.config.Addr, "tables", len(s.set.Tables()))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", s.config.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
