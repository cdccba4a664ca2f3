// Package record converts graphs to and from the JSON interchange shape used
// by the browser front end: nodes as {id, type, position, data} and edges as
// {id, source, target, sourceHandle, animated}.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/vk/flowcalc/internal/node"
)

// Graph is the serialized form of a whole graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is the serialized form of a node.
type Node struct {
	ID       string        `json:"id"`
	Type     node.Kind     `json:"type"`
	Position node.Position `json:"position"`
	Data     Data          `json:"data"`
}

// Data is the serialized node payload.
type Data struct {
	Label      string `json:"label"`
	Value      Value  `json:"value"`
	Expression string `json:"expression,omitempty"`
}

// Edge is the serialized form of an edge.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Animated     bool   `json:"animated"`
}

// Value is an optional number. It is written as "" when empty and decoded
// from "", null, a JSON number, or a numeric string.
type Value struct {
	V *float64
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.V == nil {
		return []byte(`""`), nil
	}
	if math.IsInf(*v.V, 0) || math.IsNaN(*v.V) {
		return nil, fmt.Errorf("value %v is not finite", *v.V)
	}
	return json.Marshal(*v.V)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		v.V = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			v.V = nil
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("value %q is not a number: %w", s, err)
		}
		v.V = &f
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("value %s is not a number: %w", b, err)
	}
	v.V = &f
	return nil
}

// FromGraph builds a record from nodes and edges.
func FromGraph(nodes []node.Node, edges []node.Edge) Graph {
	g := Graph{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: make([]Edge, 0, len(edges)),
	}
	for _, n := range nodes {
		g.Nodes = append(g.Nodes, NodeOf(n))
	}
	for _, e := range edges {
		g.Edges = append(g.Edges, Edge(e))
	}
	return g
}

// NodeOf converts a single node.
func NodeOf(n node.Node) Node {
	return Node{
		ID:       n.ID,
		Type:     n.Kind,
		Position: n.Position,
		Data: Data{
			Label:      n.Data.Label,
			Value:      Value{V: node.CopyValue(n.Data.Value)},
			Expression: n.Data.Expression,
		},
	}
}

// ToGraph returns the nodes and edges a record describes. Validation is left
// to the store that receives them.
func (g Graph) ToGraph() ([]node.Node, []node.Edge) {
	nodes := make([]node.Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, node.Node{
			ID:       n.ID,
			Kind:     n.Type,
			Position: n.Position,
			Data: node.Data{
				Label:      n.Data.Label,
				Value:      node.CopyValue(n.Data.Value.V),
				Expression: n.Data.Expression,
			},
		})
	}
	edges := make([]node.Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, node.Edge(e))
	}
	return nodes, edges
}

// Encode renders g as indented JSON.
func Encode(g Graph) ([]byte, error) {
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph record: %w", err)
	}
	return b, nil
}

// Decode parses a JSON graph record.
func Decode(b []byte) (Graph, error) {
	var g Graph
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("failed to decode graph record: %w", err)
	}
	return g, nil
}
