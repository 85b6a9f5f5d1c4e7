package patch

import (
	"strconv"

	"golang.org/x/text/cases"
)

// Ref names a column either by literal index ("3") or by symbolic name
// ("SpellIconID"). The zero Ref is unset.
type Ref struct {
	text string
}

// ParseRef wraps a column reference as written in a patch document.
func ParseRef(s string) Ref {
	return Ref{text: s}
}

// Index returns a literal reference to column i.
func Index(i int) Ref {
	return Ref{text: strconv.Itoa(i)}
}

// IsSet reports whether the reference was given.
func (r Ref) IsSet() bool {
	return r.text != ""
}

func (r Ref) String() string {
	return r.text
}

// literal returns the index when the reference is non-negative integer text.
func (r Ref) literal() (int, bool) {
	n, err := strconv.ParseUint(r.text, 10, strconv.IntSize-1)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// Names maps case-folded field names to column indices.
type Names map[string]int

// NewNames builds Names from a positional list of field names. Empty names
// are skipped; when a name repeats the first column wins.
func NewNames(fields []string) Names {
	n := make(Names, len(fields))
	for i, f := range fields {
		if f == "" {
			continue
		}
		k := Fold(f)
		if _, dup := n[k]; !dup {
			n[k] = i
		}
	}
	return n
}

// Set records name at index, overriding any previous entry.
func (n Names) Set(name string, index int) {
	n[Fold(name)] = index
}

// Lookup resolves name case-insensitively.
func (n Names) Lookup(name string) (int, bool) {
	if n == nil {
		return 0, false
	}
	i, ok := n[Fold(name)]
	return i, ok
}

// Fold returns the case-folded form used for name comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Policy decides what an unresolvable reference turns into.
type Policy uint8

const (
	// PolicyDefaultZero falls back to column 0. Used for key columns.
	PolicyDefaultZero Policy = iota
	// PolicySkip reports the reference as unresolved. Used for fields.
	PolicySkip
)

// Outcome describes how Resolve arrived at its index.
type Outcome uint8

const (
	// Resolved means the reference named a column (or was unset under
	// PolicyDefaultZero, which means column 0 without complaint).
	Resolved Outcome = iota
	// Defaulted means the reference did not resolve and column 0 was used.
	Defaulted
	// Unresolved means the reference did not resolve and must be skipped.
	Unresolved
)

// Resolve maps ref to a column index. Integer text is taken literally;
// anything else is looked up in names. names may be nil.
//
// The returned index is not checked against the record length; callers do
// that since it depends on the record.
func Resolve(ref Ref, names Names, policy Policy) (int, Outcome) {
	if !ref.IsSet() {
		if policy == PolicyDefaultZero {
			return 0, Resolved
		}
		return -1, Unresolved
	}
	if i, ok := ref.literal(); ok {
		return i, Resolved
	}
	if i, ok := names.Lookup(ref.text); ok && i >= 0 {
		return i, Resolved
	}
	if policy == PolicyDefaultZero {
		return 0, Defaulted
	}
	return -1, Unresolved
}
