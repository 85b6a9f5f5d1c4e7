// Package patchset loads patch documents and groups their operations per
// table in a fixed order.
//
// Documents are ordered by base file name (full path breaks ties), sections
// keep their order inside a document, and operations keep their listed
// order. The order is settled before any table is patched, so the result of
// a run does not depend on how the documents were found.
package patchset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/internal/patchtext"
	"github.com/joshuapare/dbckit/pkg/types"
)

// Options configures loading.
type Options struct {
	// Parse is passed to the document parser.
	Parse patchtext.Options
	// Parallelism bounds concurrent document parsing. 0 means unbounded.
	Parallelism int
}

// Stats summarizes a loaded set.
type Stats struct {
	Documents int
	Patches   int
	Tables    int
	Ops       int
}

type tableEntry struct {
	name    string // first spelling seen
	ops     []patch.Op
	sources []string
}

// Set holds every operation of a group of documents, grouped by table.
type Set struct {
	documents   []string
	patches     int
	tables      map[string]*tableEntry
	diagnostics []types.Diagnostic
}

// SortPaths orders documents by base name, then full path.
func SortPaths(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := filepath.Base(out[i]), filepath.Base(out[j])
		if bi != bj {
			return bi < bj
		}
		return out[i] < out[j]
	})
	return out
}

// TableKey is the case-insensitive key tables are grouped by.
func TableKey(name string) string {
	return strings.ToLower(name)
}

// Load parses the documents at paths and groups their operations.
func Load(ctx context.Context, paths []string, opts Options) (*Set, error) {
	sorted := SortPaths(paths)
	parsed := make([][]patchtext.Patch, len(sorted))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, path := range sorted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			patches, err := patchtext.ParseFile(path, opts.Parse)
			if err != nil {
				return err
			}
			parsed[i] = patches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := New()
	s.documents = sorted
	for _, patches := range parsed {
		s.Add(patches...)
	}
	return s, nil
}

// New returns an empty set.
func New() *Set {
	return &Set{tables: make(map[string]*tableEntry)}
}

// Add appends patches in the given order. Load calls it in document order;
// callers building sets by hand are responsible for their own ordering.
func (s *Set) Add(patches ...patchtext.Patch) {
	for _, p := range patches {
		key := TableKey(p.Table)
		e, ok := s.tables[key]
		if !ok {
			e = &tableEntry{name: p.Table}
			s.tables[key] = e
		}
		e.ops = append(e.ops, p.Ops...)
		s.diagnostics = append(s.diagnostics, p.Diagnostics...)
		if len(e.sources) == 0 || e.sources[len(e.sources)-1] != p.Source {
			e.sources = append(e.sources, p.Source)
		}
		s.patches++
	}
}

// Documents returns the loaded document paths in application order.
func (s *Set) Documents() []string {
	return s.documents
}

// Diagnostics returns what the parser skipped, in application order.
func (s *Set) Diagnostics() []types.Diagnostic {
	return s.diagnostics
}

// Tables returns the table keys (lower-cased names) in sorted order.
func (s *Set) Tables() []string {
	out := make([]string, 0, len(s.tables))
	for k := range s.tables {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether any patch names table.
func (s *Set) Has(table string) bool {
	_, ok := s.tables[TableKey(table)]
	return ok
}

// Name returns the table name as first written in a document.
func (s *Set) Name(table string) string {
	if e, ok := s.tables[TableKey(table)]; ok {
		return e.name
	}
	return table
}

// Sources returns the documents that patch table, in application order.
func (s *Set) Sources(table string) []string {
	if e, ok := s.tables[TableKey(table)]; ok {
		return e.sources
	}
	return nil
}

// Plan returns the operations for table. A table without patches gets an
// empty plan. The plan is a copy; callers may modify it.
func (s *Set) Plan(table string) *patch.Plan {
	plan := patch.NewPlan()
	if e, ok := s.tables[TableKey(table)]; ok {
		plan.Append(e.ops...)
	}
	return plan
}

// Stats summarizes the set.
func (s *Set) Stats() Stats {
	st := Stats{Documents: len(s.documents), Patches: s.patches, Tables: len(s.tables)}
	for _, e := range s.tables {
		st.Ops += len(e.ops)
	}
	return st
}

// Discover lists the .yaml and .yml files directly inside dir. A missing
// directory yields no files.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read patch dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return SortPaths(out), nil
}
