// internal/nodeid/types.go
package nodeid

// Address is the structured form of a generated node id.
type Address struct {
	// Prefix names the node kind, e.g. "number".
	Prefix string
	// Seq is the per-prefix sequence number, starting at 1.
	Seq int
}

// New creates an Address from its parts.
func New(prefix string, seq int) *Address {
	return &Address{Prefix: prefix, Seq: seq}
}
