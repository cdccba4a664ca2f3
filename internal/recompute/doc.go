// Package recompute keeps derived values up to date as the graph changes.
//
// The Engine subscribes to a graphstore.Store. Each Change is mapped to the
// Function and Sink nodes it affects:
//   - an expression edit recomputes that node
//   - an added, removed or reconnected edge recomputes its target
//   - a value write recomputes outgoing Sinks and the Functions that
//     currently hold the writer in their valid-reference set
//   - a removed node recomputes its former outgoers
//
// Affected nodes are queued and drained in FIFO order. A recompute writes
// through UpdateNodeData only when the value actually differs, and that write
// is itself a Change, so propagation proceeds one hop at a time until nothing
// changes. Nodes whose dependencies reach themselves are marked Unresolved
// and never written.
package recompute
