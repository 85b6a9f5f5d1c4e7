// Package buildcache stores patched tables keyed by the fingerprint of their
// inputs, and keeps a ledger of apply runs. Both live in one Pebble
// database.
package buildcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/golang/snappy"
	"github.com/segmentio/ksuid"

	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/pkg/types"
)

var (
	outputPrefix = []byte("out/")
	runPrefix    = []byte("run/")
	runUpper     = []byte("run0") // '0' follows '/'
)

// Entry is a cached table pass.
type Entry struct {
	Output      []byte             `json:"output"`
	Diagnostics []types.Diagnostic `json:"diagnostics"`
	Applied     patch.Applied      `json:"applied"`
	Interned    []string           `json:"interned,omitempty"`

	RecordsBefore int       `json:"records_before"`
	RecordsAfter  int       `json:"records_after"`
	Created       time.Time `json:"created"`
}

// Run summarizes one apply invocation.
type Run struct {
	ID          ksuid.KSUID   `json:"id"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
	Documents   []string      `json:"documents"`
	Tables      []string      `json:"tables"`
	Patched     int           `json:"patched"`
	CacheHits   int           `json:"cache_hits"`
	Warnings    int           `json:"warnings"`
	Diagnostics int           `json:"diagnostics"`
	Error       string        `json:"error,omitempty"`
}

// Cache is safe for concurrent use.
type Cache struct {
	db *pebble.DB
}

// Open opens or creates the cache in dir.
func Open(dir string) (*Cache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open build cache %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func outputKey(f Fingerprint) []byte {
	return append(append([]byte{}, outputPrefix...), f[:]...)
}

func runKey(id ksuid.KSUID) []byte {
	return append(append([]byte{}, runPrefix...), id.Bytes()...)
}

// Get returns the cached pass for f. ok is false on a miss.
func (c *Cache) Get(f Fingerprint) (e *Entry, ok bool, err error) {
	raw, closer, err := c.db.Get(outputKey(f))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	plain, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", f, err)
	}
	e = new(Entry)
	if err := json.Unmarshal(plain, e); err != nil {
		return nil, false, fmt.Errorf("cache entry %s: %w", f, err)
	}
	return e, true, nil
}

// Put stores e under f.
func (c *Cache) Put(f Fingerprint, e *Entry) error {
	plain, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.db.Set(outputKey(f), snappy.Encode(nil, plain), pebble.NoSync)
}

// RecordRun stores r under a fresh KSUID, which is also written to r.ID.
func (c *Cache) RecordRun(r *Run) (ksuid.KSUID, error) {
	id, err := ksuid.NewRandomWithTime(r.Started)
	if err != nil {
		return ksuid.Nil, err
	}
	r.ID = id
	data, err := json.Marshal(r)
	if err != nil {
		return ksuid.Nil, err
	}
	if err := c.db.Set(runKey(id), data, pebble.Sync); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// Runs returns up to limit runs, newest first. limit <= 0 means all.
func (c *Cache) Runs(limit int) ([]Run, error) {
	iter, err := c.db.NewIter(&pebble.IterOptions{LowerBound: runPrefix, UpperBound: runUpper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Run
	for valid := iter.Last(); valid; valid = iter.Prev() {
		var r Run
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			return nil, fmt.Errorf("run %x: %w", iter.Key()[len(runPrefix):], err)
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, iter.Error()
}
