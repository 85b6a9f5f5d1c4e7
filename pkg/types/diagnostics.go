package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// -----------------------------------------------------------------------------
// Diagnostics
// -----------------------------------------------------------------------------
//
// Patch application never aborts on semantic problems. Each problem becomes a
// Diagnostic value returned to the caller.

// Severity classifies how serious a diagnostic is.
type Severity int

const (
	SevInfo     Severity = iota // Informational, the operation still did what was asked
	SevWarning                  // Part of an operation was skipped
	SevError                    // A whole operation was skipped
	SevCritical                 // Structural problem in the table itself
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name produced by MarshalText.
func (s *Severity) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "INFO":
		*s = SevInfo
	case "WARNING":
		*s = SevWarning
	case "ERROR":
		*s = SevError
	case "CRITICAL":
		*s = SevCritical
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

// Kind identifies what went wrong.
type Kind int

const (
	KindUnknownKeyColumn Kind = iota // key column reference did not resolve, column 0 used
	KindUnknownField                 // field reference did not resolve, assignment skipped
	KindFieldOutOfRange              // resolved column beyond record length, assignment skipped
	KindNoMatch                      // update/copy key not found, operation skipped
	KindDuplicateKey                 // insert/copy would duplicate a key, new record discarded
	KindValueDropped                 // value does not fit a 32-bit word, assignment dropped
	KindRecordLayout                 // record_size disagrees with field_count
	KindTrailingData                 // bytes after the string block
	KindSchema                       // schema file present but unusable
	KindUnknownKey                   // patch document key not understood, ignored
)

var kindNames = [...]string{
	KindUnknownKeyColumn: "unknown_key_column",
	KindUnknownField:     "unknown_field",
	KindFieldOutOfRange:  "field_out_of_range",
	KindNoMatch:          "no_match",
	KindDuplicateKey:     "duplicate_key",
	KindValueDropped:     "value_dropped",
	KindRecordLayout:     "record_layout",
	KindTrailingData:     "trailing_data",
	KindSchema:           "schema",
	KindUnknownKey:       "unknown_key",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic kind %q", b)
}

// Diagnostic is a single non-fatal issue found while decoding or patching a
// table.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`

	// Location
	Table  string `json:"table,omitempty"`  // table file name, e.g. "Spell.dbc"
	Source string `json:"source,omitempty"` // patch document the operation came from
	Op     int    `json:"op"`               // index of the operation in the table's plan, -1 for codec issues
	Key    uint32 `json:"key,omitempty"`    // key the operation targeted
	Field  string `json:"field,omitempty"`  // field reference as written

	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", d.Severity, d.Message)
	if d.Table != "" {
		fmt.Fprintf(&b, " in %s", d.Table)
	}
	if d.Source != "" {
		fmt.Fprintf(&b, " (patch file: %s)", d.Source)
	}
	return b.String()
}

// DiagnosticReport collects the diagnostics of one or more tables.
type DiagnosticReport struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
	Summary     DiagSummary  `json:"summary"`
}

// DiagSummary provides quick statistics.
type DiagSummary struct {
	Critical int `json:"critical"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// NewDiagnosticReport creates an empty report.
func NewDiagnosticReport() *DiagnosticReport {
	return &DiagnosticReport{Diagnostics: []Diagnostic{}}
}

// Add appends diagnostics and updates the summary.
func (r *DiagnosticReport) Add(ds ...Diagnostic) {
	for _, d := range ds {
		r.Diagnostics = append(r.Diagnostics, d)
		switch d.Severity {
		case SevCritical:
			r.Summary.Critical++
		case SevError:
			r.Summary.Errors++
		case SevWarning:
			r.Summary.Warnings++
		case SevInfo:
			r.Summary.Info++
		}
	}
}

// AtLeast returns the diagnostics with severity >= min, in insertion order.
func (r *DiagnosticReport) AtLeast(min Severity) []Diagnostic {
	out := make([]Diagnostic, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		if d.Severity >= min {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns everything that should be surfaced to a user: warnings
// and worse. Info-level diagnostics (dropped values) are excluded.
func (r *DiagnosticReport) Warnings() []Diagnostic {
	return r.AtLeast(SevWarning)
}

// ByKind groups diagnostics by kind.
func (r *DiagnosticReport) ByKind() map[Kind][]Diagnostic {
	out := make(map[Kind][]Diagnostic)
	for _, d := range r.Diagnostics {
		out[d.Kind] = append(out[d.Kind], d)
	}
	return out
}

// Sorted returns diagnostics ordered by table, then op index. The sort is
// stable so diagnostics of one op keep their emission order.
func (r *DiagnosticReport) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(r.Diagnostics))
	copy(out, r.Diagnostics)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].Op < out[j].Op
	})
	return out
}

// HasErrors returns true if any errors or critical issues were found.
func (r *DiagnosticReport) HasErrors() bool {
	return r.Summary.Critical > 0 || r.Summary.Errors > 0
}

// FormatJSON returns the report as formatted JSON (2-space indentation).
func (r *DiagnosticReport) FormatJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatTextCompact returns one line per diagnostic.
func (r *DiagnosticReport) FormatTextCompact() string {
	var b strings.Builder
	for _, d := range r.Sorted() {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	if len(r.Diagnostics) == 0 {
		b.WriteString("No issues found.\n")
	}
	return b.String()
}
