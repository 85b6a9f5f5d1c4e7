// Package metrics exposes Prometheus counters for table processing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/pkg/types"
)

const namespace = "dbckit"

// Table processing outcomes.
const (
	StatusPatched   = "patched"
	StatusUnchanged = "unchanged"
	StatusCached    = "cached"
	StatusError     = "error"
)

// Metrics holds all Prometheus metrics of a process on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	tablesTotal     *prometheus.CounterVec
	tableDuration   prometheus.Histogram
	operationsTotal *prometheus.CounterVec
	diagnostics     *prometheus.CounterVec
	stringsInterned prometheus.Counter
	cacheLookups    *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		tablesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tables_processed_total",
				Help:      "Tables processed, by outcome",
			},
			[]string{"status"},
		),

		tableDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "table_duration_seconds",
				Help:      "Time to decode, patch and encode one table",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),

		operationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Patch operations, by type and outcome",
			},
			[]string{"type", "outcome"},
		),

		diagnostics: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Diagnostics reported, by kind",
			},
			[]string{"kind"},
		),

		stringsInterned: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "strings_interned_total",
				Help:      "Strings appended to string blocks",
			},
		),

		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Build cache lookups, by result",
			},
			[]string{"result"},
		),

		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordTable records one processed table.
func (m *Metrics) RecordTable(status string, duration time.Duration) {
	m.tablesTotal.WithLabelValues(status).Inc()
	m.tableDuration.Observe(duration.Seconds())
}

// RecordApplied records the statistics of one patch pass.
func (m *Metrics) RecordApplied(a patch.Applied) {
	m.operationsTotal.WithLabelValues(patch.OpUpdate.String(), "applied").Add(float64(a.Updated))
	m.operationsTotal.WithLabelValues(patch.OpInsert.String(), "applied").Add(float64(a.Inserted))
	m.operationsTotal.WithLabelValues(patch.OpCopy.String(), "applied").Add(float64(a.Copied))
	m.operationsTotal.WithLabelValues("any", "skipped").Add(float64(a.Skipped))
	m.stringsInterned.Add(float64(a.StringsInterned))
}

// RecordDiagnostics counts diagnostics by kind.
func (m *Metrics) RecordDiagnostics(ds []types.Diagnostic) {
	for _, d := range ds {
		m.diagnostics.WithLabelValues(d.Kind.String()).Inc()
	}
}

// RecordCacheLookup counts a build cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values for the node exporter textfile
// collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// InstrumentHandler records request counts and latency for handler under
// the given endpoint label.
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)
		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
