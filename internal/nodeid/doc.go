// internal/nodeid/doc.go

/*
Package nodeid provides a structured representation for node identifiers,
based on the canonical format `<prefix>_<seq>`, e.g. `number_1`.

The prefix names the node kind and the sequence number is a per-kind
counter. Identifiers loaded from elsewhere only need to satisfy the
reference-token alphabet (letters, digits and underscore); the structured
form is used to keep the per-kind counters ahead of every id in use.
*/
package nodeid
