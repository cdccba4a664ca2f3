package graphstore

import (
	"context"

	"github.com/vk/flowcalc/internal/node"
)

// ChangeKind identifies the mutation a Change describes.
type ChangeKind int

const (
	NodeAdded ChangeKind = iota
	NodeRemoved
	NodeUpdated
	EdgeAdded
	EdgeRemoved
	EdgeReconnected
	// GraphReplaced is emitted once by Replace for the whole new graph.
	GraphReplaced
)

func (k ChangeKind) String() string {
	switch k {
	case NodeAdded:
		return "node_added"
	case NodeRemoved:
		return "node_removed"
	case NodeUpdated:
		return "node_updated"
	case EdgeAdded:
		return "edge_added"
	case EdgeRemoved:
		return "edge_removed"
	case EdgeReconnected:
		return "edge_reconnected"
	case GraphReplaced:
		return "graph_replaced"
	default:
		return "unknown"
	}
}

// Structural reports whether the change altered connectivity.
func (k ChangeKind) Structural() bool {
	return k != NodeUpdated
}

// Field is a bit set naming the node data fields touched by NodeUpdated.
type Field uint8

const (
	FieldLabel Field = 1 << iota
	FieldValue
	FieldExpression
	FieldPosition
)

// Has reports whether f contains every bit of other.
func (f Field) Has(other Field) bool {
	return f&other == other
}

// Change describes one completed mutation.
type Change struct {
	Kind ChangeKind
	// Nodes lists the ids whose state or connectivity changed. For NodeRemoved
	// the first entry is the removed node.
	Nodes []string
	// Fields is set for NodeUpdated.
	Fields Field
	// Added holds edges created by the mutation, including restitched ones.
	Added []node.Edge
	// Removed holds edges discarded by the mutation.
	Removed []node.Edge
}

// Targets returns the distinct targets of added and removed edges, in order,
// leaving out the ids in skip.
func (c Change) Targets(skip ...string) []string {
	seen := make(map[string]struct{}, len(skip))
	for _, id := range skip {
		seen[id] = struct{}{}
	}
	var out []string
	for _, group := range [][]node.Edge{c.Removed, c.Added} {
		for _, e := range group {
			if _, ok := seen[e.Target]; ok {
				continue
			}
			seen[e.Target] = struct{}{}
			out = append(out, e.Target)
		}
	}
	return out
}

// Listener receives Change descriptors after the mutation has completed and
// the store's lock has been released.
type Listener func(ctx context.Context, c Change)

// Patch is a partial update of a node's data. Nil fields are left unchanged.
type Patch struct {
	Label      *string
	Value      *float64
	ClearValue bool
	Expression *string
	Position   *node.Position
}

// Empty reports whether the patch sets nothing.
func (p Patch) Empty() bool {
	return p.Label == nil && p.Value == nil && !p.ClearValue && p.Expression == nil && p.Position == nil
}
