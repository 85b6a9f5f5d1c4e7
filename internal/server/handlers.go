package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/internal/logger"
	"github.com/joshuapare/dbckit/internal/metrics"
	"github.com/joshuapare/dbckit/pkg/dbc"
	"github.com/joshuapare/dbckit/pkg/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	keys := s.set.Tables()
	out := make([]TableInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, TableInfo{
			Name:    s.set.Name(k),
			Ops:     s.set.Plan(k).Size(),
			Sources: s.set.Sources(k),
		})
	}
	sendSuccess(w, out)
}

// handlePatchTable applies the loaded patches for {name} to the request
// body. Tables without patches are returned re-encoded but otherwise
// unchanged.
func (s *Server) handlePatchTable(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := chi.URLParam(r, "name")
	if name == "" {
		sendError(w, "Table name is required", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxTableSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Table exceeds size limit", http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var names patch.Names
	sch, sdiags := s.schemas.Load(name)
	if sch != nil {
		names = sch.Names
	}

	plan := s.set.Plan(name)
	out, err := dbc.ApplyBytes(r.Context(), name, body, plan, names,
		dbc.TableOptions{ReserveEmptyString: s.config.ReserveEmptyString})
	if err != nil {
		s.metrics.RecordTable(metrics.StatusError, time.Since(start))
		logger.Warn("patch request failed", "table", name, "error", err)
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	diags := append(append([]types.Diagnostic(nil), sdiags...), out.Diagnostics...)
	status := metrics.StatusUnchanged
	if plan.Size() > 0 {
		status = metrics.StatusPatched
	}
	s.metrics.RecordTable(status, time.Since(start))
	s.metrics.RecordApplied(out.Applied)
	s.metrics.RecordDiagnostics(diags)

	if r.URL.Query().Get("report") == "json" {
		report := types.NewDiagnosticReport()
		report.Add(diags...)
		sendSuccess(w, PatchReport{
			Table:         name,
			Applied:       out.Applied,
			Interned:      out.Interned,
			RecordsBefore: out.RecordsBefore,
			RecordsAfter:  out.RecordsAfter,
			Report:        report,
		})
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.Header().Set(HeaderDiagnostics, strconv.Itoa(len(diags)))
	w.Header().Set(HeaderOps, strconv.Itoa(plan.Size()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}
