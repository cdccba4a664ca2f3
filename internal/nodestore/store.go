// Package nodestore defines the interface for storing the evaluation state of
// Function and Sink nodes.
//
// # Why Node Store Exists
//
// The node store isolates **evaluation state** (status, last error) from the
// **graph itself** (nodes, edges, values) managed by graphstore. Values are
// part of the graph because the UI reads and edits them; statuses are a by-product of
// recomputation and only the recompute engine writes them.
//
// # Lifecycle and Usage
//
// The node store is:
//  1. **Created** alongside the graph store
//  2. **Mutated** by the recompute engine after every recompute
//  3. **Queried** by the facade to report node status and failures to clients
//  4. **Reset** when the whole graph is replaced
//
// # State Transitions
//
// Nodes follow this lifecycle:
//
//	Pending -> Resolved | Failed | Unresolved
//
// and move freely between the last three as inputs change.
package nodestore

import (
	"context"

	"github.com/vk/flowcalc/internal/node"
)

// Store is the interface for managing per-node evaluation state.
//
// # Thread-Safety Requirements
//
// Implementations MUST be thread-safe: the HTTP layer reads statuses while
// the engine writes them.
type Store interface {
	// SetStatus records the outcome of the node's latest recompute.
	SetStatus(ctx context.Context, id string, status node.Status) error

	// GetStatus returns the node's status, or StatusPending if none was recorded.
	GetStatus(ctx context.Context, id string) (node.Status, error)

	// SetError records the error of the latest failed recompute. A nil error
	// clears it.
	SetError(ctx context.Context, id string, nodeErr error) error

	// GetError returns the recorded error, or nil.
	GetError(ctx context.Context, id string) (error, error)

	// Delete forgets all state of a removed node.
	Delete(ctx context.Context, id string) error

	// Reset forgets the state of every node.
	Reset(ctx context.Context) error
}
