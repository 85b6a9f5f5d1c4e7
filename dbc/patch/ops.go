package patch

// Applied contains statistics about what was changed during plan application.
type Applied struct {
	Updated  int // records modified in place
	Inserted int // records appended by insert
	Copied   int // records appended by copy
	Skipped  int // operations that changed nothing (no match, duplicate key)

	FieldsSet       int // words written by assignments
	FieldsSkipped   int // assignments skipped (unknown or out of range)
	ValuesDropped   int // integers that did not fit a word
	StringsInterned int // strings appended to the string block
}

// Add accumulates o into a.
func (a *Applied) Add(o Applied) {
	a.Updated += o.Updated
	a.Inserted += o.Inserted
	a.Copied += o.Copied
	a.Skipped += o.Skipped
	a.FieldsSet += o.FieldsSet
	a.FieldsSkipped += o.FieldsSkipped
	a.ValuesDropped += o.ValuesDropped
	a.StringsInterned += o.StringsInterned
}

// OpType represents the type of patch operation to perform.
type OpType uint8

const (
	// OpUpdate modifies the first record whose key column holds the key.
	OpUpdate OpType = iota
	// OpInsert appends a new zero-initialized record.
	OpInsert
	// OpCopy appends a modified clone of an existing record.
	OpCopy
)

// String returns the lower-case name used in patch documents.
func (t OpType) String() string {
	switch t {
	case OpUpdate:
		return "update"
	case OpInsert:
		return "insert"
	case OpCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// Assignment sets one field of a record.
type Assignment struct {
	Field Ref
	Value Value
}

// Assign is shorthand for an Assignment whose field is parsed with ParseRef.
func Assign(field string, v Value) Assignment {
	return Assignment{Field: ParseRef(field), Value: v}
}

// Op represents a single patch operation.
type Op struct {
	// Type of operation to perform
	Type OpType

	// Key identifies the target record (update, copy) or seeds the key
	// column of a new record (insert). Ignored when HasKey is false.
	Key    uint32
	HasKey bool

	// KeyColumn selects the column holding keys. The zero Ref means column 0.
	KeyColumn Ref

	// Assignments in document order. Later assignments to the same column
	// win.
	Assignments []Assignment

	// Source names the patch document the operation came from, for
	// diagnostics only.
	Source string
}

// Plan is the ordered list of operations for one table.
type Plan struct {
	Ops []Op
}

// NewPlan creates a new empty Plan.
func NewPlan() *Plan {
	return &Plan{
		Ops: make([]Op, 0),
	}
}

// AddUpdate adds an update of the record whose keyColumn equals key.
func (p *Plan) AddUpdate(keyColumn Ref, key uint32, assigns ...Assignment) {
	p.Ops = append(p.Ops, Op{
		Type:        OpUpdate,
		Key:         key,
		HasKey:      true,
		KeyColumn:   keyColumn,
		Assignments: assigns,
	})
}

// AddInsert adds an insert without a key; the key column is whatever the
// assignments put there.
func (p *Plan) AddInsert(keyColumn Ref, assigns ...Assignment) {
	p.Ops = append(p.Ops, Op{
		Type:        OpInsert,
		KeyColumn:   keyColumn,
		Assignments: assigns,
	})
}

// AddInsertKey adds an insert that writes key into keyColumn unless an
// assignment targets that column.
func (p *Plan) AddInsertKey(keyColumn Ref, key uint32, assigns ...Assignment) {
	p.Ops = append(p.Ops, Op{
		Type:        OpInsert,
		Key:         key,
		HasKey:      true,
		KeyColumn:   keyColumn,
		Assignments: assigns,
	})
}

// AddCopy adds a copy of the record whose keyColumn equals key.
func (p *Plan) AddCopy(keyColumn Ref, key uint32, assigns ...Assignment) {
	p.Ops = append(p.Ops, Op{
		Type:        OpCopy,
		Key:         key,
		HasKey:      true,
		KeyColumn:   keyColumn,
		Assignments: assigns,
	})
}

// Append adds ops to the end of the plan, preserving their order.
func (p *Plan) Append(ops ...Op) {
	p.Ops = append(p.Ops, ops...)
}

// Size returns the number of operations in the plan.
func (p *Plan) Size() int {
	return len(p.Ops)
}
