package graphstore

import (
	"context"

	"github.com/vk/flowcalc/internal/node"
)

// Store is the interface for managing the calculator graph.
//
// The store is responsible for:
//   - **Nodes**: ValueSource, Function and Sink vertices with their data
//   - **Edges**: directed connections, kept in insertion order
//   - **Change events**: one Change per completed mutation, delivered in order
//
// It does NOT evaluate anything. Derived values are computed by
// internal/recompute and written back through UpdateNodeData.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. Listeners are invoked
// after the mutation's lock is released, so a listener may call back into the
// store; changes raised from inside a listener are queued and delivered after
// the current one, never recursively.
type Store interface {
	// AddNode creates a node of the given kind at pos and returns its
	// generated id.
	//
	// The node starts with the kind's default data; non-zero fields of data
	// (label, value, expression) override those defaults. Emits NodeAdded.
	AddNode(ctx context.Context, kind node.Kind, pos node.Position, data *node.Data) (string, error)

	// RemoveNode deletes a node after restitching its incomers to its outgoers,
	// so no edge ever dangles. Emits one NodeRemoved carrying the discarded and
	// the synthesized edges. Unknown ids return ErrNotFound.
	RemoveNode(ctx context.Context, id string) error

	// RemoveNodes deletes several nodes in one action. Ids are processed in
	// sorted order over one rolling edge set, so edges synthesized for one
	// deletion are restitched again by the next. Unknown ids are skipped and
	// reported together with ErrNotFound after the known ones are removed.
	RemoveNodes(ctx context.Context, ids ...string) error

	// AddEdge connects source to target and returns the new edge id.
	//
	// Returns ErrNotFound for unknown endpoints, ErrInvalidConnection for
	// self-loops or kinds that cannot be connected that way,
	// ErrCapacityExceeded when target is a Sink that already has an input and
	// ErrDuplicateEdge when the same connection exists. State is unchanged on
	// error. Emits EdgeAdded.
	AddEdge(ctx context.Context, source, target, handle string) (string, error)

	// RemoveEdge deletes an edge. Unknown ids return ErrNotFound. Emits EdgeRemoved.
	RemoveEdge(ctx context.Context, id string) error

	// ReconnectEdge moves an existing edge to new endpoints, validating the
	// new connection as AddEdge does while ignoring the edge being moved.
	// Returns the id of the replacement edge. Emits EdgeReconnected.
	ReconnectEdge(ctx context.Context, oldID, newSource, newTarget string) (string, error)

	// UpdateNodeData applies a partial update. A patch that changes nothing
	// emits nothing. Emits NodeUpdated with the changed fields otherwise.
	UpdateNodeData(ctx context.Context, id string, patch Patch) error

	// Replace discards the whole graph and loads the given nodes and edges.
	// Edges are validated as by AddEdge except for Sink capacity. On error the
	// previous graph is kept. Emits GraphReplaced.
	Replace(ctx context.Context, nodes []node.Node, edges []node.Edge) error

	// Node returns a copy of the node with the given id.
	Node(ctx context.Context, id string) (node.Node, bool)
	// Nodes returns copies of all nodes in insertion order.
	Nodes(ctx context.Context) []node.Node
	// Edge returns the edge with the given id.
	Edge(ctx context.Context, id string) (node.Edge, bool)
	// Edges returns all edges in insertion order.
	Edges(ctx context.Context) []node.Edge
	// Incomers returns the distinct sources of edges into id, in edge order.
	Incomers(ctx context.Context, id string) ([]string, error)
	// Outgoers returns the distinct targets of edges out of id, in edge order.
	Outgoers(ctx context.Context, id string) ([]string, error)
	// ConnectedEdges returns every edge touching id, in edge order.
	ConnectedEdges(ctx context.Context, id string) ([]node.Edge, error)
	// Value returns the node's current value; nil means empty.
	Value(ctx context.Context, id string) (*float64, error)

	// Subscribe registers a listener and returns a function that removes it.
	Subscribe(l Listener) (unsubscribe func())
}
