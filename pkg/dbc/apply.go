package dbc

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/internal/buildcache"
	"github.com/joshuapare/dbckit/internal/logger"
	"github.com/joshuapare/dbckit/internal/metrics"
	"github.com/joshuapare/dbckit/internal/mmfile"
	"github.com/joshuapare/dbckit/internal/patchset"
	"github.com/joshuapare/dbckit/internal/patchtext"
	"github.com/joshuapare/dbckit/internal/schema"
	"github.com/joshuapare/dbckit/internal/writer"
	"github.com/joshuapare/dbckit/pkg/types"
)

// ErrNoPatches is returned when no patch documents were given or found and
// no tables were listed explicitly.
var ErrNoPatches = errors.New("dbc: no patch documents")

// TableResult describes one processed table.
type TableResult struct {
	Name   string `json:"name"`
	Input  string `json:"input"`
	Output string `json:"output,omitempty"` // empty unless written to a directory

	Ops         int                `json:"ops"`
	Cached      bool               `json:"cached"`
	Applied     patch.Applied      `json:"applied"`
	Diagnostics []types.Diagnostic `json:"diagnostics"`
	Interned    []string           `json:"interned,omitempty"`

	RecordsBefore int           `json:"records_before"`
	RecordsAfter  int           `json:"records_after"`
	Duration      time.Duration `json:"duration"`
}

// Run is the outcome of Apply.
type Run struct {
	ID        string        `json:"id,omitempty"` // ledger id, when a cache is configured
	Started   time.Time     `json:"started"`
	Duration  time.Duration `json:"duration"`
	Documents []string      `json:"documents"`
	Tables    []TableResult `json:"tables"`

	Report *types.DiagnosticReport `json:"report"`
}

// Apply patches tables and writes them to opts.Output, or to opts.OutDir
// when no sink is set. Tables are returned
// sorted by name. Every selected table is written, whether or not any patch
// touched it.
func Apply(ctx context.Context, opts ApplyOptions) (*Run, error) {
	run := &Run{Started: time.Now(), Report: types.NewDiagnosticReport()}

	err := apply(ctx, opts, run)
	run.Duration = time.Since(run.Started)

	if opts.Cache != nil {
		rec := &buildcache.Run{
			Started:     run.Started,
			Duration:    run.Duration,
			Documents:   run.Documents,
			Diagnostics: len(run.Report.Diagnostics),
			Warnings:    len(run.Report.Warnings()),
		}
		for _, tr := range run.Tables {
			rec.Tables = append(rec.Tables, tr.Name)
			if tr.Ops > 0 {
				rec.Patched++
			}
			if tr.Cached {
				rec.CacheHits++
			}
		}
		if err != nil {
			rec.Error = err.Error()
		}
		id, lerr := opts.Cache.RecordRun(rec)
		if lerr != nil {
			logger.Warn("failed to record run", "error", lerr)
		} else {
			run.ID = id.String()
		}
	}

	if err != nil {
		return nil, err
	}
	return run, nil
}

func apply(ctx context.Context, opts ApplyOptions, run *Run) error {
	patchPaths := opts.Patches
	if len(patchPaths) == 0 && opts.PatchDir != "" {
		found, err := patchset.Discover(opts.PatchDir)
		if err != nil {
			return err
		}
		patchPaths = found
	}
	if len(patchPaths) == 0 && len(opts.Tables) == 0 {
		return ErrNoPatches
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	set, err := patchset.Load(ctx, patchPaths, patchset.Options{
		Parse:       patchtext.Options{InputEncoding: opts.InputEncoding},
		Parallelism: parallelism,
	})
	if err != nil {
		return err
	}
	run.Documents = set.Documents()
	for _, d := range set.Diagnostics() {
		logger.Diagnostic(d)
	}
	run.Report.Add(set.Diagnostics()...)
	if opts.Metrics != nil {
		opts.Metrics.RecordDiagnostics(set.Diagnostics())
	}
	logger.Debug("loaded patch documents", "documents", len(run.Documents), "tables", len(set.Tables()))

	tables := opts.Tables
	if len(tables) == 0 {
		if tables, err = ResolveTables(set, opts.TableDir); err != nil {
			return err
		}
	} else {
		warnUntargeted(set, tables)
	}

	out := opts.Output
	if out == nil {
		dir := &writer.DirWriter{Dir: opts.OutDir}
		if err := dir.Prepare(); err != nil {
			return err
		}
		out = dir
	}

	p := &processor{
		out:     out,
		opts:    opts,
		set:     set,
		schemas: schema.NewLoader(opts.SchemaDirs...),
		tops:    TableOptions{ReserveEmptyString: opts.ReserveEmptyString},
	}

	results := make([]TableResult, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, path := range tables {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.table(gctx, path)
			if err != nil {
				if opts.Metrics != nil {
					opts.Metrics.RecordTable(metrics.StatusError, 0)
				}
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	run.Tables = results
	for _, tr := range results {
		run.Report.Add(tr.Diagnostics...)
	}
	return nil
}

type processor struct {
	out     writer.Sink
	opts    ApplyOptions
	set     *patchset.Set
	schemas *schema.Loader
	tops    TableOptions
}

func (p *processor) table(ctx context.Context, path string) (*TableResult, error) {
	start := time.Now()
	name := filepath.Base(path)
	res := &TableResult{Name: name, Input: path}
	if dir, ok := p.out.(*writer.DirWriter); ok {
		res.Output = dir.Path(name)
	}

	plan := p.set.Plan(name)
	res.Ops = plan.Size()

	var names patch.Names
	sch, sdiags := p.schemas.Load(name)
	if sch != nil {
		names = sch.Names
	}

	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", path, err)
	}
	out, cached, err := p.patch(ctx, name, data, plan, names)
	if uerr := unmap(); uerr != nil && err == nil {
		err = fmt.Errorf("unmap table %s: %w", path, uerr)
	}
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", path, err)
	}

	if err := p.out.WriteTable(name, out.Data); err != nil {
		return nil, err
	}

	res.Cached = cached
	res.Applied = out.Applied
	res.Interned = out.Interned
	res.Diagnostics = append(append([]types.Diagnostic(nil), sdiags...), out.Diagnostics...)
	res.RecordsBefore = out.RecordsBefore
	res.RecordsAfter = out.RecordsAfter
	res.Duration = time.Since(start)

	for _, d := range res.Diagnostics {
		logger.Diagnostic(d)
	}
	logger.Info("wrote table", "table", name, "output", res.Output, "ops", res.Ops,
		"records", res.RecordsAfter, "cached", cached)

	if m := p.opts.Metrics; m != nil {
		status := metrics.StatusUnchanged
		switch {
		case cached:
			status = metrics.StatusCached
		case res.Ops > 0:
			status = metrics.StatusPatched
		}
		m.RecordTable(status, res.Duration)
		m.RecordApplied(res.Applied)
		m.RecordDiagnostics(res.Diagnostics)
	}
	return res, nil
}

// patch runs one table pass, consulting the build cache when configured.
// data may be a memory mapping and is not retained.
func (p *processor) patch(ctx context.Context, name string, data []byte, plan *patch.Plan, names patch.Names) (*TableOutput, bool, error) {
	c := p.opts.Cache
	if c == nil {
		out, err := ApplyBytes(ctx, name, data, plan, names, p.tops)
		return out, false, err
	}

	fp := buildcache.Compute(buildcache.Inputs{
		Version:            EngineVersion,
		Name:               name,
		ReserveEmptyString: p.tops.ReserveEmptyString,
		Table:              data,
		Names:              names,
		Plan:               plan,
	})
	entry, hit, err := c.Get(fp)
	if err != nil {
		logger.Warn("build cache lookup failed", "table", name, "error", err)
	}
	if p.opts.Metrics != nil {
		p.opts.Metrics.RecordCacheLookup(hit)
	}
	if hit {
		return &TableOutput{
			Data:          entry.Output,
			Applied:       entry.Applied,
			Diagnostics:   entry.Diagnostics,
			Interned:      entry.Interned,
			RecordsBefore: entry.RecordsBefore,
			RecordsAfter:  entry.RecordsAfter,
		}, true, nil
	}

	out, err := ApplyBytes(ctx, name, data, plan, names, p.tops)
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(fp, &buildcache.Entry{
		Output:        out.Data,
		Diagnostics:   out.Diagnostics,
		Interned:      out.Interned,
		Applied:       out.Applied,
		RecordsBefore: out.RecordsBefore,
		RecordsAfter:  out.RecordsAfter,
		Created:       time.Now().UTC(),
	}); err != nil {
		logger.Warn("build cache store failed", "table", name, "error", err)
	}
	return out, false, nil
}

// warnUntargeted logs patched tables that are not among the selected files.
func warnUntargeted(set *patchset.Set, tables []string) {
	selected := make(map[string]bool, len(tables))
	for _, t := range tables {
		selected[patchset.TableKey(filepath.Base(t))] = true
	}
	for _, key := range set.Tables() {
		if !selected[key] {
			logger.Warn("patches target a table that is not being processed", "table", set.Name(key),
				"sources", set.Sources(key))
		}
	}
}
