// Package schema loads the field names of a table so patches can refer to
// columns by name.
//
// A schema for Spell.dbc lives in Spell.dbc.yaml and takes one of three
// shapes:
//
//	# positional list
//	- ID
//	- School
//
//	# positional list under "fields"
//	fields: [ID, School]
//
//	# explicit indices
//	ID: 0
//	School: 1
//
// Names are matched case-insensitively.
package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/pkg/types"
)

// FileSuffix is appended to a table file name to form its schema file name.
const FileSuffix = ".yaml"

// ErrNoFields is returned for a schema document without usable names.
var ErrNoFields = errors.New("schema: no field names")

// Schema is the column naming of one table.
type Schema struct {
	// Path the schema was loaded from.
	Path string
	// Fields in column order, when the schema is positional.
	Fields []string
	// Names resolves field names to columns.
	Names patch.Names

	columns map[int]string // first name per column, indexed schemas only
}

// Labels returns a display name for each of the first n columns, "" where
// the schema names none.
func (s *Schema) Labels(n int) []string {
	out := make([]string, n)
	if s.Fields != nil {
		copy(out, s.Fields)
		return out
	}
	for i := range out {
		out[i] = s.columns[i]
	}
	return out
}

// Parse decodes a schema document.
func Parse(data []byte) (*Schema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	n := &root
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}

	switch n.Kind {
	case yaml.SequenceNode:
		return positional(n)
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == "fields" && n.Content[i+1].Kind == yaml.SequenceNode {
				return positional(n.Content[i+1])
			}
		}
		return indexed(n)
	default:
		return nil, ErrNoFields
	}
}

// positional reads a list of names. Non-string entries keep their column
// but get no name.
func positional(n *yaml.Node) (*Schema, error) {
	s := &Schema{Fields: make([]string, len(n.Content))}
	for i, item := range n.Content {
		if item.Kind == yaml.ScalarNode && item.ShortTag() == "!!str" {
			s.Fields[i] = item.Value
		}
	}
	s.Names = patch.NewNames(s.Fields)
	if len(s.Names) == 0 {
		return nil, ErrNoFields
	}
	return s, nil
}

// indexed reads a name to column mapping. Entries whose value is not a
// non-negative integer are ignored.
func indexed(n *yaml.Node) (*Schema, error) {
	s := &Schema{Names: make(patch.Names), columns: make(map[int]string)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode || v.ShortTag() != "!!int" {
			continue
		}
		var idx uint32
		if err := v.Decode(&idx); err != nil {
			continue
		}
		if _, dup := s.Names.Lookup(k.Value); dup {
			continue
		}
		s.Names.Set(k.Value, int(idx))
		if _, ok := s.columns[int(idx)]; !ok {
			s.columns[int(idx)] = k.Value
		}
	}
	if len(s.Names) == 0 {
		return nil, ErrNoFields
	}
	return s, nil
}

// Loader finds schemas across an ordered list of directories. Results are
// cached per table; a Loader is safe for concurrent use.
type Loader struct {
	dirs []string

	mu    sync.Mutex
	cache map[string]cached
}

type cached struct {
	schema *Schema
	diags  []types.Diagnostic
}

// NewLoader searches dirs in order. Empty entries are skipped.
func NewLoader(dirs ...string) *Loader {
	l := &Loader{cache: make(map[string]cached)}
	for _, d := range dirs {
		if d != "" {
			l.dirs = append(l.dirs, d)
		}
	}
	return l
}

// Dirs returns the search path.
func (l *Loader) Dirs() []string {
	return l.dirs
}

// Load returns the schema for table (a file name such as "Spell.dbc"). The
// first directory with a usable file wins. A file that cannot be read or
// parsed produces a diagnostic and the search moves on. When no directory
// has a schema the result is nil.
func (l *Loader) Load(table string) (*Schema, []types.Diagnostic) {
	key := strings.ToLower(table)
	l.mu.Lock()
	if c, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return c.schema, c.diags
	}
	l.mu.Unlock()

	s, diags := l.search(table)

	l.mu.Lock()
	l.cache[key] = cached{schema: s, diags: diags}
	l.mu.Unlock()
	return s, diags
}

func (l *Loader) search(table string) (*Schema, []types.Diagnostic) {
	var diags []types.Diagnostic
	for _, dir := range l.dirs {
		path, ok := findFile(dir, table+FileSuffix)
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err == nil {
			var s *Schema
			if s, err = Parse(data); err == nil {
				s.Path = path
				return s, diags
			}
		}
		diags = append(diags, types.Diagnostic{
			Severity: types.SevWarning,
			Kind:     types.KindSchema,
			Table:    table,
			Op:       -1,
			Message:  fmt.Sprintf("failed to load schema %s: %v", path, err),
		})
	}
	return nil, diags
}

// findFile looks for name in dir, falling back to a case-insensitive match.
func findFile(dir, name string) (string, bool) {
	exact := filepath.Join(dir, name)
	if fi, err := os.Stat(exact); err == nil && !fi.IsDir() {
		return exact, true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), name) {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}
