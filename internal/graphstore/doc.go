// Package graphstore defines the interface for the calculator's node and edge
// collections, the single source of truth for graph structure and values.
//
// # Why Graph Store Exists
//
// Every user gesture (add a node, connect two nodes, edit an expression,
// delete a selection) maps onto exactly one Store operation. Each mutation
// emits a Change descriptor once it has completed, and the reactive layer
// (internal/recompute) subscribes to those descriptors instead of being
// called by the UI directly. This keeps the evaluation core independent of
// whatever transport or presentation layer drives it.
//
// # Lifecycle and Usage
//
// A store is:
//  1. **Created** empty, or filled in one step with Replace from a sheet or record
//  2. **Mutated** by user commands (via internal/graph.Manager) and by the
//     recompute engine writing derived values through UpdateNodeData
//  3. **Queried** for connectivity (Incomers, Outgoers, ConnectedEdges) and values
//
// # Errors
//
// Rejected operations return one of the sentinel errors below, wrapped with
// context. Code maps any of them to the stable reason code reported to
// clients.
package graphstore
