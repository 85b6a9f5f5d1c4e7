// Package logger holds the process-wide structured logger.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joshuapare/dbckit/pkg/types"
)

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L *slog.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	logPrefix     = "dbcctl-"
	logSuffix     = ".log"
	retentionDays = 30

	FormatText = "text"
	FormatJSON = "json"
)

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Level   slog.Level // Minimum log level. Default: LevelInfo
	Format  string     // "text" (default) or "json"
	Output  io.Writer  // Destination. Default: stderr, unless LogDir is set
	LogDir  string     // When set, log to a dated file in this directory
}

// Init configures logging. Call from main() before any log calls. The
// returned closer releases a log file opened for LogDir; it is never nil.
func Init(opts Options) (io.Closer, error) {
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nopCloser{}, nil
	}

	var (
		out    = opts.Output
		closer io.Closer = nopCloser{}
	)
	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return nil, err
		}

		// Clean up old logs (best-effort, ignore errors)
		cleanOldLogs(opts.LogDir)

		filename := filepath.Join(opts.LogDir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		out, closer = f, f
	}
	if out == nil {
		out = os.Stderr
	}

	ho := &slog.HandlerOptions{Level: opts.Level}
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		L = slog.New(slog.NewTextHandler(out, ho))
	case FormatJSON:
		L = slog.New(slog.NewJSONHandler(out, ho))
	default:
		closer.Close()
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// cleanOldLogs removes log files older than retentionDays.
func cleanOldLogs(logDir string) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}

		// dbcctl-2024-01-05.log
		dateStr := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), logPrefix)
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		if logDate.Before(cutoff) {
			os.Remove(filepath.Join(logDir, name))
		}
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }

// Diagnostic logs d at the level matching its severity.
func Diagnostic(d types.Diagnostic) {
	level := slog.LevelInfo
	switch d.Severity {
	case types.SevWarning:
		level = slog.LevelWarn
	case types.SevError, types.SevCritical:
		level = slog.LevelError
	}
	args := []any{"kind", d.Kind.String(), "table", d.Table}
	if d.Source != "" {
		args = append(args, "source", d.Source)
	}
	if d.Op >= 0 {
		args = append(args, "op", d.Op)
	}
	if d.Field != "" {
		args = append(args, "field", d.Field)
	}
	L.Log(context.Background(), level, d.Message, args...)
}
