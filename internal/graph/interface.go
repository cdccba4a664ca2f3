package graph

import (
	"context"

	"github.com/vk/flowcalc/internal/graphstore"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/reference"
)

// Graph is the complete set of operations a presentation layer may perform
// on a calculator graph.
//
// Errors returned by mutating methods wrap the graphstore sentinels, so
// callers classify them with errors.Is or graphstore.Code. A rejected
// operation never leaves a partial change behind.
//
// # Usage Patterns
//
// **HTTP and socket.io handlers** map requests one-to-one onto methods:
//   - Gestures: AddNode, RemoveNodes, Connect, Disconnect, Reconnect
//   - Edits: SetValue, ClearValue, SetExpression, SetLabel, Move
//   - Reads: Value, Node, Nodes, Edges, Status, Candidates, References
//
// **Loaders** (sheet files, JSON records) build a Snapshot and hand it to
// Restore, which replaces the graph and recomputes every derived node.
//
// **Push channels** register OnValue to forward value writes and OnChange
// to learn about structural changes.
type Graph interface {
	// AddNode creates a node of the given kind. A nil data uses the kind's
	// defaults. Returns the generated id.
	AddNode(ctx context.Context, kind node.Kind, pos node.Position, data *node.Data) (string, error)

	// RemoveNodes deletes the given nodes, restitching their connections so
	// every former incomer stays connected to every former outgoer.
	RemoveNodes(ctx context.Context, ids ...string) error

	// Connect adds an edge from source to target and returns its id.
	//
	// Rejected with ErrCapacityExceeded when target is a Sink that already
	// has an input, with ErrInvalidConnection for self-loops and for edges
	// into a number or out of a result, and with ErrDuplicateEdge when the
	// same connection exists.
	Connect(ctx context.Context, source, target, handle string) (string, error)

	// Disconnect removes an edge.
	Disconnect(ctx context.Context, edgeID string) error

	// Reconnect moves an existing edge to new endpoints and returns the id of
	// the edge that now occupies its place.
	Reconnect(ctx context.Context, edgeID, source, target string) (string, error)

	// SetValue sets the value of a number node.
	SetValue(ctx context.Context, id string, v float64) error

	// ClearValue empties the value of a number node.
	ClearValue(ctx context.Context, id string) error

	// SetExpression replaces the raw expression text of a function node.
	SetExpression(ctx context.Context, id, expr string) error

	// SetLabel renames a node.
	SetLabel(ctx context.Context, id, label string) error

	// Move records a node's position.
	Move(ctx context.Context, id string, pos node.Position) error

	// Value returns a node's current value; nil means empty.
	Value(ctx context.Context, id string) (*float64, error)

	// Node returns a copy of a node.
	Node(ctx context.Context, id string) (node.Node, error)

	// Nodes returns every node in insertion order.
	Nodes(ctx context.Context) []node.Node

	// Edges returns every edge in insertion order.
	Edges(ctx context.Context) []node.Edge

	// Status returns the evaluation state of a node.
	Status(ctx context.Context, id string) (State, error)

	// Candidates returns the ids a reference token in id's expression may
	// currently name, for autocompletion.
	Candidates(ctx context.Context, id string) ([]string, error)

	// References resolves id's expression against its current incomers.
	References(ctx context.Context, id string) (reference.Resolution, error)

	// Snapshot returns the whole graph.
	Snapshot(ctx context.Context) Snapshot

	// Restore replaces the whole graph and recomputes it.
	Restore(ctx context.Context, snap Snapshot) error

	// OnValue registers a listener for value writes.
	OnValue(l ValueListener) (unsubscribe func())

	// OnChange registers a listener for every store change.
	OnChange(l graphstore.Listener) (unsubscribe func())
}

// ValueListener receives a node id and its new value after every write.
type ValueListener func(ctx context.Context, id string, value *float64)

// State is the evaluation state of a single node.
type State struct {
	Status node.Status
	// Err is the last evaluation error, the cycle error for Unresolved nodes,
	// or the joined invalid-reference errors of a Resolved function.
	Err error
}

// Snapshot is a self-contained copy of a graph.
type Snapshot struct {
	Nodes []node.Node
	Edges []node.Edge
}
