package server

import (
	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/pkg/types"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TableInfo describes a table with pending patches.
type TableInfo struct {
	Name    string   `json:"name"`
	Ops     int      `json:"ops"`
	Sources []string `json:"sources"`
}

// PatchReport is returned by POST /api/v1/tables/{name}?report=json.
type PatchReport struct {
	Table         string                  `json:"table"`
	Applied       patch.Applied           `json:"applied"`
	Interned      []string                `json:"interned,omitempty"`
	RecordsBefore int                     `json:"records_before"`
	RecordsAfter  int                     `json:"records_after"`
	Report        *types.DiagnosticReport `json:"report"`
}

// Config holds configuration for the API server
type Config struct {
	Addr string

	// MaxTableSize bounds request bodies. 0 means DefaultMaxTableSize.
	MaxTableSize int64

	ReserveEmptyString bool
}

// DefaultMaxTableSize is the default request body limit.
const DefaultMaxTableSize = 256 << 20

// Header names set on patched table responses.
const (
	HeaderDiagnostics = "X-Dbc-Diagnostics"
	HeaderOps         = "X-Dbc-Ops"
)
