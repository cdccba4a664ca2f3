// Package inmemorygraph provides a thread-safe, in-memory implementation of
// the graphstore.Store interface.
//
// Nodes are kept in a map plus an insertion-order slice; edges are kept in a
// slice so that edge-insertion order (which decides what a Sink displays) is
// preserved across every mutation. A single RWMutex guards both.
//
// Change events are queued in an outbox and delivered after the lock is
// released. A change raised while another is being delivered (typically a
// value written back by the recompute engine) is appended to the outbox and
// delivered by the same loop, so cascades run breadth-first without recursion.
package inmemorygraph
