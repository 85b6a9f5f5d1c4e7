package patch

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshuapare/dbckit/dbc"
	"github.com/joshuapare/dbckit/dbc/strpool"
	"github.com/joshuapare/dbckit/pkg/types"
)

// ErrMissingKey is returned for an update or copy without a key.
var ErrMissingKey = errors.New("patch: operation requires a key")

// Result is the outcome of applying a plan.
type Result struct {
	Applied     Applied
	Diagnostics []types.Diagnostic

	// Interned lists the strings this call appended to the string block, in
	// offset order.
	Interned []string
}

// Session applies plans to one table. It is not safe for concurrent use.
type Session struct {
	name  string
	t     *dbc.Table
	names Names
	pool  *strpool.Pool
	opt   Options

	diags []types.Diagnostic
	stats Applied

	// current op, for diagnostics
	opIndex int
	op      *Op
}

// NewSession creates a session patching t in place. name labels
// diagnostics (usually the table's file name); names maps field names to
// columns and may be nil.
func NewSession(name string, t *dbc.Table, names Names, opt Options) *Session {
	return &Session{
		name:  name,
		t:     t,
		names: names,
		pool:  strpool.New(t.Strings, opt.Pool),
		opt:   opt,
	}
}

// Table returns the table being patched.
func (s *Session) Table() *dbc.Table {
	return s.t
}

// Apply runs every operation of plan in order. Recoverable problems become
// diagnostics; an error is returned only for malformed operations, a string
// block overflow or cancellation, in which case some operations may have
// been applied.
//
// When Apply returns, the table's string block includes every string
// interned so far.
func (s *Session) Apply(ctx context.Context, plan *Plan) (Result, error) {
	start := len(s.diags)
	staged := len(s.pool.Staged())
	before := s.stats

	var err error
	for i := range plan.Ops {
		if err = ctx.Err(); err != nil {
			break
		}
		s.opIndex, s.op = i, &plan.Ops[i]
		if err = s.applyOp(s.op); err != nil {
			err = fmt.Errorf("operation %d (%s): %w", i, s.op.Type, err)
			break
		}
	}
	s.op = nil

	s.t.Strings = s.pool.Bytes()

	res := Result{
		Diagnostics: s.diags[start:len(s.diags):len(s.diags)],
		Interned:    append([]string(nil), s.pool.Staged()[staged:]...),
	}
	res.Applied = s.stats
	res.Applied.sub(before)
	return res, err
}

// Diagnostics returns everything reported since the session was created.
func (s *Session) Diagnostics() []types.Diagnostic {
	return s.diags
}

// Stats returns the totals since the session was created.
func (s *Session) Stats() Applied {
	return s.stats
}

func (a *Applied) sub(o Applied) {
	a.Updated -= o.Updated
	a.Inserted -= o.Inserted
	a.Copied -= o.Copied
	a.Skipped -= o.Skipped
	a.FieldsSet -= o.FieldsSet
	a.FieldsSkipped -= o.FieldsSkipped
	a.ValuesDropped -= o.ValuesDropped
	a.StringsInterned -= o.StringsInterned
}

func (s *Session) applyOp(op *Op) error {
	switch op.Type {
	case OpUpdate:
		if !op.HasKey {
			return ErrMissingKey
		}
		return s.update(op)
	case OpInsert:
		return s.insert(op)
	case OpCopy:
		if !op.HasKey {
			return ErrMissingKey
		}
		return s.copyRecord(op)
	default:
		return fmt.Errorf("unknown operation type: %d", op.Type)
	}
}

func (s *Session) update(op *Op) error {
	col := s.keyColumn(op)
	i, ok := s.find(col, op.Key)
	if !ok {
		s.noMatch("no record found with key %d", op.Key)
		return nil
	}
	if err := s.assign(s.t.Records[i], op, op.Key); err != nil {
		return err
	}
	s.stats.Updated++
	return nil
}

func (s *Session) insert(op *Op) error {
	col := s.keyColumn(op)
	rec := make(dbc.Record, s.t.FieldCount())

	if op.HasKey && col < len(rec) && !s.assignsColumn(op, col) {
		rec[col] = op.Key
	}
	if err := s.assign(rec, op, op.Key); err != nil {
		return err
	}
	if !s.appendUnique(rec, col, "insert") {
		return nil
	}
	s.stats.Inserted++
	return nil
}

func (s *Session) copyRecord(op *Op) error {
	col := s.keyColumn(op)
	i, ok := s.find(col, op.Key)
	if !ok {
		s.noMatch("no record found with key %d to copy", op.Key)
		return nil
	}
	rec := s.t.Records[i].Clone()
	if err := s.assign(rec, op, op.Key); err != nil {
		return err
	}
	if !s.appendUnique(rec, col, "copy") {
		return nil
	}
	s.stats.Copied++
	return nil
}

// keyColumn resolves the op's key column, warning when it falls back to 0.
func (s *Session) keyColumn(op *Op) int {
	col, outcome := Resolve(op.KeyColumn, s.names, PolicyDefaultZero)
	if outcome == Defaulted {
		s.report(types.SevWarning, types.KindUnknownKeyColumn, op.KeyColumn.String(),
			"unknown key column '%s', defaulting to 0", op.KeyColumn)
	}
	return col
}

// find returns the first record whose column col equals key. Records too
// short to hold col never match.
func (s *Session) find(col int, key uint32) (int, bool) {
	for i, rec := range s.t.Records {
		if col < len(rec) && rec[col] == key {
			return i, true
		}
	}
	return 0, false
}

// assignsColumn reports whether any assignment of op resolves to col.
func (s *Session) assignsColumn(op *Op, col int) bool {
	for _, a := range op.Assignments {
		if i, outcome := Resolve(a.Field, s.names, PolicySkip); outcome == Resolved && i == col {
			return true
		}
	}
	return false
}

// appendUnique appends rec unless its key column duplicates an existing
// record. A key column outside the record disables the check.
func (s *Session) appendUnique(rec dbc.Record, col int, verb string) bool {
	if col < len(rec) {
		if _, dup := s.find(col, rec[col]); dup {
			s.stats.Skipped++
			s.report(types.SevWarning, types.KindDuplicateKey, "",
				"record with key %d already exists, skipping %s", rec[col], verb)
			return false
		}
	}
	s.t.Records = append(s.t.Records, rec)
	return true
}

// assign applies op's assignments to rec in order. key labels diagnostics.
func (s *Session) assign(rec dbc.Record, op *Op, key uint32) error {
	for _, a := range op.Assignments {
		col, outcome := Resolve(a.Field, s.names, PolicySkip)
		if outcome != Resolved {
			s.stats.FieldsSkipped++
			s.report(types.SevWarning, types.KindUnknownField, a.Field.String(),
				"unknown field '%s', skipping", a.Field)
			continue
		}
		if col >= len(rec) {
			s.stats.FieldsSkipped++
			s.report(types.SevWarning, types.KindFieldOutOfRange, a.Field.String(),
				"field %d out of range for record with key %d (%d fields)", col, key, len(rec))
			continue
		}

		word, dropped, interned, err := Coerce(a.Value, s.pool)
		if err != nil {
			return err
		}
		if dropped {
			s.stats.ValuesDropped++
			s.report(types.SevInfo, types.KindValueDropped, a.Field.String(),
				"value %s for field '%s' does not fit 32 bits, ignored", a.Value, a.Field)
			continue
		}
		if interned {
			s.stats.StringsInterned++
		}
		rec[col] = word
		s.stats.FieldsSet++
	}
	return nil
}

func (s *Session) noMatch(format string, args ...any) {
	s.stats.Skipped++
	s.report(types.SevWarning, types.KindNoMatch, "", format, args...)
}

func (s *Session) report(sev types.Severity, kind types.Kind, field, format string, args ...any) {
	d := types.Diagnostic{
		Severity: sev,
		Kind:     kind,
		Table:    s.name,
		Op:       s.opIndex,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
	if s.op != nil {
		d.Source = s.op.Source
		d.Key = s.op.Key
	}
	s.diags = append(s.diags, d)
}
