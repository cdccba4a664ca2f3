// Package server exposes a graph over HTTP and socket.io.
//
// The REST API under / maps one request onto one graph operation and
// replies with the affected ids or the whole graph record. The socket.io
// endpoint under /socket.io/ pushes every value write as a `value` event,
// pushes the whole graph as a `graph` event on connect and after every
// structural change, and accepts `command` events answered with `result`.
//
// Rejected operations are reported with a stable reason code:
//
//	{"error": "node 'x': not found", "code": "NotFound"}
package server
