package dbc

import (
	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/dbc/strpool"
	"github.com/joshuapare/dbckit/internal/buildcache"
	"github.com/joshuapare/dbckit/internal/metrics"
	"github.com/joshuapare/dbckit/internal/writer"
)

// EngineVersion changes whenever output for the same inputs may change. It
// is part of every build cache key.
const EngineVersion = "1"

// ApplyOptions configures Apply.
type ApplyOptions struct {
	// Tables lists table files explicitly. When empty, the tables named by
	// the patch documents are looked up in TableDir.
	Tables   []string
	TableDir string

	// Patches lists patch documents explicitly. When empty, every .yaml and
	// .yml file in PatchDir is used.
	Patches  []string
	PatchDir string

	// SchemaDirs are searched in order for <Table>.yaml field names.
	SchemaDirs []string

	// OutDir receives one output file per table. Created if missing.
	OutDir string

	// Output, when set, receives the tables instead of OutDir.
	Output writer.Sink

	// Parallelism bounds concurrently processed tables. 0 means one per CPU.
	Parallelism int

	// ReserveEmptyString keeps offset 0 meaning "" when a table with an
	// empty string block gains its first string.
	ReserveEmptyString bool

	// InputEncoding for patch documents without a byte order mark.
	InputEncoding string

	// Cache, when set, reuses output of identical table passes and records
	// the run in its ledger.
	Cache *buildcache.Cache

	// Metrics, when set, receives per-table counters.
	Metrics *metrics.Metrics
}

// TableOptions configures a single table pass.
type TableOptions struct {
	ReserveEmptyString bool
}

// DefaultTableOptions returns the recommended options.
func DefaultTableOptions() TableOptions {
	return TableOptions{ReserveEmptyString: true}
}

func (o TableOptions) session() patch.Options {
	return patch.Options{Pool: strpool.Options{ReserveEmptyString: o.ReserveEmptyString}}
}
