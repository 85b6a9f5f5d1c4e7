package patch

import "github.com/joshuapare/dbckit/dbc/strpool"

// Options configures a patch session.
//
// Use DefaultOptions() for the recommended behaviour.
type Options struct {
	// Pool configures string interning.
	// Default: strpool.DefaultOptions() (offset 0 reserved for "")
	Pool strpool.Options
}

// DefaultOptions returns the recommended options.
func DefaultOptions() Options {
	return Options{Pool: strpool.DefaultOptions()}
}
