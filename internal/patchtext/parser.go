// Package patchtext parses YAML patch documents into patch operations.
//
// A document holds one or more table sections. Every unindented line ending
// in ".dbc:" starts a new section, so one file may name the same table
// several times. Each section is parsed as YAML on its own and may take one
// of these shapes:
//
//	# table name to changes
//	Spell.dbc:
//	  - type: update
//	    key: 133
//	    updates: {SpellIconID: 12}
//
//	# explicit patch
//	dbc: Spell.dbc
//	changes:
//	  - {type: insert, key: 90000, values: {0: 90000, Name: "Blink II"}}
//
//	# list of explicit patches
//	- dbc: Spell.dbc
//	  changes: [...]
//
// Empty sections and comment-only sections yield nothing.
package patchtext

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/dbckit/dbc/patch"
	"github.com/joshuapare/dbckit/pkg/types"
)

// ErrMalformed marks a patch document that does not have a valid shape.
var ErrMalformed = errors.New("patchtext: malformed patch document")

// Options configures parsing.
type Options struct {
	// InputEncoding declares the text encoding when the input has no byte
	// order mark. Empty means UTF-8.
	InputEncoding string
}

// Patch is the set of operations one section declares for one table.
type Patch struct {
	// Table as written in the document, e.g. "Spell.dbc".
	Table string
	// Source is the document path.
	Source string
	// Section is the zero-based section index within the document.
	Section int
	// Line where the patch starts.
	Line int
	// Ops in document order, each carrying Source.
	Ops []patch.Op
	// Diagnostics reports keys the parser did not understand and skipped.
	Diagnostics []types.Diagnostic
}

// ParseFile reads and parses the document at path.
func ParseFile(path string, opts Options) ([]Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patch file %s: %w", path, err)
	}
	return Parse(data, path, opts)
}

// Parse parses a document. source names it in errors and in the returned
// operations.
func Parse(data []byte, source string, opts Options) ([]Patch, error) {
	text, err := decodeInput(data, opts.InputEncoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var out []Patch
	for i, sec := range splitSections(text) {
		var root yaml.Node
		if err := yaml.Unmarshal(sec.body, &root); err != nil {
			return nil, fmt.Errorf("%s: section at line %d: %w", source, sec.line, err)
		}
		p := &parser{source: source, lineOffset: sec.line - 1}
		patches, err := p.section(&root)
		if err != nil {
			return nil, err
		}
		for j := range patches {
			patches[j].Section = i
		}
		out = append(out, patches...)
	}
	return out, nil
}

type section struct {
	line int // 1-based line of the first line in body
	body []byte
}

// splitSections cuts text before every unindented line ending in ".dbc:".
// Sections that are only whitespace are dropped.
func splitSections(text []byte) []section {
	var (
		out     []section
		current bytes.Buffer
		start   = 1
		lineNo  = 0
	)
	flush := func() {
		if len(bytes.TrimSpace(current.Bytes())) > 0 {
			out = append(out, section{line: start, body: bytes.Clone(current.Bytes())})
		}
		current.Reset()
	}

	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), math.MaxInt32)
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if isSectionHeader(line) {
			flush()
			start = lineNo
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return out
}

func isSectionHeader(line string) bool {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	trimmed := strings.TrimRight(line, " \t\r")
	return strings.HasSuffix(strings.ToLower(trimmed), sectionSuffix)
}

type parser struct {
	source     string
	lineOffset int
	diags      []types.Diagnostic // pending for the patch being parsed
}

// ignore records an unknown mapping key k.
func (p *parser) ignore(k *yaml.Node, where string) {
	p.diags = append(p.diags, types.Diagnostic{
		Severity: types.SevWarning,
		Kind:     types.KindUnknownKey,
		Source:   p.source,
		Op:       -1,
		Field:    k.Value,
		Message:  fmt.Sprintf("line %d: unknown %s key %q ignored", p.line(k), where, k.Value),
	})
}

// take returns the pending diagnostics labelled with table and resets them.
func (p *parser) take(table string) []types.Diagnostic {
	out := p.diags
	p.diags = nil
	for i := range out {
		out[i].Table = table
	}
	return out
}

func (p *parser) errorf(n *yaml.Node, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if n == nil {
		return fmt.Errorf("%s: %s: %w", p.source, msg, ErrMalformed)
	}
	return fmt.Errorf("%s:%d:%d: %s: %w", p.source, n.Line+p.lineOffset, n.Column, msg, ErrMalformed)
}

func (p *parser) line(n *yaml.Node) int {
	return n.Line + p.lineOffset
}

func (p *parser) section(root *yaml.Node) ([]Patch, error) {
	n := root
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, nil
		}
		n = n.Content[0]
	}
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if n.ShortTag() == tagNull {
			return nil, nil
		}
		return nil, p.errorf(n, "unexpected scalar at top level")
	case yaml.SequenceNode:
		out := make([]Patch, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.MappingNode || !hasKeys(item, fieldDBC, fieldChanges) {
				return nil, p.errorf(item, "list items must be mappings with %q and %q", fieldDBC, fieldChanges)
			}
			pt, err := p.explicit(item)
			if err != nil {
				return nil, err
			}
			out = append(out, pt)
		}
		return out, nil
	case yaml.MappingNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		if hasKeys(n, fieldDBC, fieldChanges) {
			pt, err := p.explicit(n)
			if err != nil {
				return nil, err
			}
			return []Patch{pt}, nil
		}
		return p.byTable(n)
	default:
		return nil, p.errorf(n, "unexpected YAML structure")
	}
}

// explicit parses a {dbc, changes} mapping.
func (p *parser) explicit(n *yaml.Node) (Patch, error) {
	pt := Patch{Source: p.source, Line: p.line(n)}
	var changes *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case fieldDBC:
			if v.Kind != yaml.ScalarNode || v.ShortTag() != tagStr || v.Value == "" {
				return Patch{}, p.errorf(v, "%q must be a table name", fieldDBC)
			}
			pt.Table = v.Value
		case fieldChanges:
			changes = v
		default:
			p.ignore(k, "patch")
		}
	}
	ops, err := p.changes(changes, pt.Table)
	if err != nil {
		return Patch{}, err
	}
	pt.Ops = ops
	pt.Diagnostics = p.take(pt.Table)
	return pt, nil
}

// byTable parses a table name to changes mapping.
func (p *parser) byTable(n *yaml.Node) ([]Patch, error) {
	out := make([]Patch, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || k.ShortTag() != tagStr {
			return nil, p.errorf(k, "invalid table key %q", k.Value)
		}
		ops, err := p.changes(v, k.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Patch{
			Table:       k.Value,
			Source:      p.source,
			Line:        p.line(k),
			Ops:         ops,
			Diagnostics: p.take(k.Value),
		})
	}
	return out, nil
}

func (p *parser) changes(n *yaml.Node, table string) ([]patch.Op, error) {
	if n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == tagNull) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, p.errorf(n, "changes for %s must be a list", table)
	}
	ops := make([]patch.Op, 0, len(n.Content))
	for _, item := range n.Content {
		op, err := p.change(item)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (p *parser) change(n *yaml.Node) (patch.Op, error) {
	op := patch.Op{Source: p.source}
	if n.Kind != yaml.MappingNode {
		return op, p.errorf(n, "change must be a mapping")
	}

	var (
		typeNode    *yaml.Node
		assignsNode *yaml.Node
		assignsKey  string
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case fieldType:
			typeNode = v
		case fieldKey:
			if v.ShortTag() == tagNull {
				continue
			}
			key, err := p.word(v)
			if err != nil {
				return op, err
			}
			op.Key, op.HasKey = key, true
		case fieldKeyColumn:
			ref, err := p.ref(v)
			if err != nil {
				return op, err
			}
			op.KeyColumn = ref
		case fieldUpdates, fieldValues:
			if assignsNode != nil {
				return op, p.errorf(k, "both %q and %q given", assignsKey, k.Value)
			}
			assignsNode, assignsKey = v, k.Value
		default:
			p.ignore(k, "change")
		}
	}

	if typeNode == nil {
		return op, p.errorf(n, "change without %q", fieldType)
	}
	switch strings.ToLower(typeNode.Value) {
	case "update":
		op.Type = patch.OpUpdate
	case "insert":
		op.Type = patch.OpInsert
	case "copy":
		op.Type = patch.OpCopy
	default:
		return op, p.errorf(typeNode, "unknown change type %q", typeNode.Value)
	}
	if op.Type != patch.OpInsert && !op.HasKey {
		return op, p.errorf(n, "%s requires %q", op.Type, fieldKey)
	}

	assigns, err := p.assignments(assignsNode)
	if err != nil {
		return op, err
	}
	op.Assignments = assigns
	return op, nil
}

// word decodes a non-negative integer that fits a record word.
func (p *parser) word(n *yaml.Node) (uint32, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != tagInt {
		return 0, p.errorf(n, "key must be an integer, got %q", n.Value)
	}
	var v uint64
	if err := n.Decode(&v); err != nil || v > math.MaxUint32 {
		return 0, p.errorf(n, "key %s out of range 0..%d", n.Value, uint32(math.MaxUint32))
	}
	return uint32(v), nil
}

// ref accepts an integer index or a field name. Integers that cannot be a
// column index are kept as written and fail to resolve when applied.
func (p *parser) ref(n *yaml.Node) (patch.Ref, error) {
	if n.Kind != yaml.ScalarNode {
		return patch.Ref{}, p.errorf(n, "column must be an index or a name")
	}
	switch n.ShortTag() {
	case tagNull:
		return patch.Ref{}, nil
	case tagInt:
		var v uint64
		if err := n.Decode(&v); err != nil || v > math.MaxInt32 {
			return patch.ParseRef(n.Value), nil
		}
		return patch.Index(int(v)), nil
	default:
		return patch.ParseRef(n.Value), nil
	}
}

func (p *parser) assignments(n *yaml.Node) ([]patch.Assignment, error) {
	if n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == tagNull) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, p.errorf(n, "assignments must be a mapping of field to value")
	}
	out := make([]patch.Assignment, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		field, err := p.ref(k)
		if err != nil {
			return nil, err
		}
		if !field.IsSet() {
			return nil, p.errorf(k, "empty field name")
		}
		val, err := p.value(v)
		if err != nil {
			return nil, err
		}
		out = append(out, patch.Assignment{Field: field, Value: val})
	}
	return out, nil
}

func (p *parser) value(n *yaml.Node) (patch.Value, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return patch.Value{}, p.errorf(n, "value must be a scalar")
	}
	switch n.ShortTag() {
	case tagInt:
		var i int64
		if err := n.Decode(&i); err == nil {
			return patch.Int(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return patch.Uint(u), nil
		}
		return patch.Value{}, p.errorf(n, "integer %s out of range", n.Value)
	case tagFloat:
		var f float64
		if err := n.Decode(&f); err != nil {
			return patch.Value{}, p.errorf(n, "invalid float %s", n.Value)
		}
		return patch.Float(f), nil
	case tagBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return patch.Value{}, p.errorf(n, "invalid bool %s", n.Value)
		}
		return patch.Bool(b), nil
	case tagStr:
		return patch.String(n.Value), nil
	default:
		return patch.Value{}, p.errorf(n, "unsupported value %q (%s)", n.Value, strings.TrimPrefix(n.ShortTag(), "!!"))
	}
}

func hasKeys(n *yaml.Node, keys ...string) bool {
	for _, want := range keys {
		found := false
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
