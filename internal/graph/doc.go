// Package graph provides the facade the presentation layer talks to.
//
// # Why Graph Package Exists
//
// The calculator is split into a structural store (inmemorygraph), a
// per-node evaluation state store (inmemorystore), and a recompute engine
// that listens to store changes. None of those know about each other's
// lifecycles. The Manager wires them together once and exposes the small
// set of gestures a UI performs: add, delete, connect, disconnect, edit a
// value or an expression, and read values back.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│            Graph Manager            │
//	│   (gestures, reads, subscriptions)  │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │   Graph    │─▶│ Recompute  │
//	  │   Store    │◀─│   Engine   │
//	  │ (Structure)│  │  (States)  │
//	  └────────────┘  └────────────┘
//
// Every mutation goes to the graph store. The store emits a change, the
// engine re-evaluates the affected Function and Sink nodes and writes any
// new values back through the same store, which emits further changes.
// By the time a Manager method returns, the cascade it triggered has
// settled.
//
// # Thread-Safety
//
// Mutations are serialized by the Manager, so a mutation and its cascade
// complete before the next one starts. Reads go straight to the stores and
// may run concurrently. Listeners registered with OnValue and OnChange run
// synchronously inside the mutation that caused them and must not call
// mutating Manager methods.
package graph
