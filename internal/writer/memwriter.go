package writer

import (
	"sort"
	"sync"
)

// MemWriter captures tables in memory. Safe for concurrent use.
type MemWriter struct {
	mu     sync.Mutex
	tables map[string][]byte
}

// WriteTable stores a copy of data under name.
func (w *MemWriter) WriteTable(name string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tables == nil {
		w.tables = make(map[string][]byte)
	}
	w.tables[name] = append([]byte(nil), data...)
	return nil
}

// Table returns the bytes written for name.
func (w *MemWriter) Table(name string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.tables[name]
	return b, ok
}

// Names returns the written table names, sorted.
func (w *MemWriter) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.tables))
	for n := range w.tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
