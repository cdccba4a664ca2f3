// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// Status and error are kept in two independent sync.Maps keyed by node id.
// Entries are written by the recompute engine and read concurrently by the
// transport layer; each node's state is independent of every other node's.
package inmemorystore
