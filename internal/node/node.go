// Package node defines the vertices and edges of the calculator graph.
package node

import "fmt"

// Position is a presentation attribute carried through without interpretation.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Data is the mutable payload of a node.
type Data struct {
	// Label is the human-readable caption.
	Label string
	// Value is the current numeric value. Nil means empty or not yet computed.
	Value *float64
	// Expression is the raw text of a Function node, including `@id` tokens.
	Expression string
}

// Node is a single vertex of the calculator graph.
type Node struct {
	ID       string
	Kind     Kind
	Position Position
	Data     Data
}

// Clone returns a deep copy so callers never share the value pointer with the store.
func (n Node) Clone() Node {
	n.Data.Value = CopyValue(n.Data.Value)
	return n
}

// Edge is a directed connection from Source to Target.
type Edge struct {
	ID           string
	Source       string
	Target       string
	SourceHandle string
	// Animated is a presentation flag carried through without interpretation.
	Animated bool
}

// String renders the edge for logs.
func (e Edge) String() string {
	return fmt.Sprintf("%s(%s->%s)", e.ID, e.Source, e.Target)
}

// Touches reports whether the edge has id as either endpoint.
func (e Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// DefaultData returns the initial payload of a freshly added node of the
// given kind and sequence number.
func DefaultData(kind Kind, seq int) Data {
	d := Data{Label: fmt.Sprintf("%s %d", kind.Title(), seq)}
	if kind == ValueSource {
		d.Value = Float(0)
	}
	return d
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// CopyValue returns an independent copy of v.
func CopyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}

// SameValue reports whether two optional values are equal. Two empty values
// are equal; an empty and a defined value are not.
func SameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// FormatValue renders an optional value, using the empty string for nil.
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}
