package node

import (
	"fmt"
	"strings"
)

// Kind distinguishes the three roles a node can play in the calculator graph.
type Kind int

const (
	// ValueSource is a user-editable numeric leaf with no dependencies.
	ValueSource Kind = iota
	// Function holds an expression referencing other nodes and computes a derived value.
	Function
	// Sink displays one upstream value and accepts at most one input.
	Sink
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{ValueSource, Function, Sink}

// String returns the interchange name of the kind, which is also the id prefix.
func (k Kind) String() string {
	switch k {
	case ValueSource:
		return "number"
	case Function:
		return "function"
	case Sink:
		return "result"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Title returns the capitalized form used in default labels.
func (k Kind) Title() string {
	switch k {
	case ValueSource:
		return "Number"
	case Function:
		return "Function"
	case Sink:
		return "Result"
	default:
		return k.String()
	}
}

// ParseKind converts an interchange name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number":
		return ValueSource, nil
	case "function":
		return Function, nil
	case "result":
		return Sink, nil
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case ValueSource, Function, Sink:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("cannot marshal unknown node kind %d", int(k))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// AcceptsInput reports whether edges may target a node of this kind.
func (k Kind) AcceptsInput() bool {
	return k == Function || k == Sink
}

// ProvidesOutput reports whether edges may leave a node of this kind.
func (k Kind) ProvidesOutput() bool {
	return k == ValueSource || k == Function
}

// InputCapacity returns the maximum number of incoming edges a user may
// connect, or -1 when unbounded.
func (k Kind) InputCapacity() int {
	switch k {
	case ValueSource:
		return 0
	case Sink:
		return 1
	default:
		return -1
	}
}
