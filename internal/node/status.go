package node

// Status is the evaluation state of a Function or Sink node.
type Status int

const (
	// StatusPending means the node has not been recomputed yet.
	StatusPending Status = iota
	// StatusResolved means the last recompute produced a value.
	StatusResolved
	// StatusFailed means the last evaluation failed and the prior value was kept.
	StatusFailed
	// StatusUnresolved means the node is part of a dependency cycle. It is
	// never written while the cycle exists, so a value it had before the
	// cycle formed is stale until a connectivity change breaks the cycle.
	StatusUnresolved
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	case StatusUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
