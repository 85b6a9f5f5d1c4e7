package patch

import (
	"fmt"
	"math"
	"strconv"

	"github.com/joshuapare/dbckit/dbc/strpool"
	"github.com/joshuapare/dbckit/internal/format"
)

// ValueKind tags a Value.
type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindUint
	KindFloat
	KindBool
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a datum from a patch document.
type Value struct {
	kind ValueKind
	i    int64
	u    uint64
	f    float64
	s    string
}

func Int(v int64) Value     { return Value{kind: KindInt, i: v} }
func Uint(v uint64) Value   { return Value{kind: KindUint, u: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }

func Bool(v bool) Value {
	if v {
		return Value{kind: KindBool, u: 1}
	}
	return Value{kind: KindBool}
}

// Kind returns the value's tag.
func (v Value) Kind() ValueKind { return v.kind }

// Str returns the content of a string value.
func (v Value) Str() string { return v.s }

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindUint:
		return strconv.FormatUint(v.u, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.u == 1)
	case KindString:
		return strconv.Quote(v.s)
	default:
		return "<invalid>"
	}
}

// Word converts a non-string value to a record word. ok is false when an
// integer falls outside 0..2^32-1 or the value is a string.
func (v Value) Word() (uint32, bool) {
	switch v.kind {
	case KindInt:
		if v.i < 0 || v.i > format.MaxWord {
			return 0, false
		}
		return uint32(v.i), true
	case KindUint:
		if v.u > format.MaxWord {
			return 0, false
		}
		return uint32(v.u), true
	case KindFloat:
		return math.Float32bits(float32(v.f)), true
	case KindBool:
		return uint32(v.u), true
	default:
		return 0, false
	}
}

// Coerce converts v to a record word, interning strings into pool. dropped
// is true when the value cannot be stored; the word is then meaningless.
// interned reports whether a string was appended to the pool.
func Coerce(v Value, pool *strpool.Pool) (word uint32, dropped, interned bool, err error) {
	if v.kind == KindString {
		off, added, err := pool.Intern(v.s)
		if err != nil {
			return 0, false, false, fmt.Errorf("intern %q: %w", v.s, err)
		}
		return off, false, added, nil
	}
	w, ok := v.Word()
	return w, !ok, false, nil
}
