package inmemorygraph

import (
	"context"
	"fmt"
	"slices"

	"github.com/vk/flowcalc/internal/graphstore"
	"github.com/vk/flowcalc/internal/node"
)

// Node retrieves a copy of a single node.
func (s *Store) Node(ctx context.Context, id string) (node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return node.Node{}, false
	}
	return n.Clone(), true
}

// Nodes returns copies of all nodes in insertion order.
func (s *Store) Nodes(ctx context.Context) []node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]node.Node, 0, len(s.order))
	for _, id := range s.order {
		nodes = append(nodes, s.nodes[id].Clone())
	}
	return nodes
}

// Edge retrieves a single edge.
func (s *Store) Edge(ctx context.Context, id string) (node.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.edgeIndex(id); idx >= 0 {
		return s.edges[idx], true
	}
	return node.Edge{}, false
}

// Edges returns all edges in insertion order.
func (s *Store) Edges(ctx context.Context) []node.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges)
}

// Incomers returns the distinct sources of edges into id.
func (s *Store) Incomers(ctx context.Context, id string) ([]string, error) {
	return s.neighbours(id, func(e node.Edge) (string, bool) { return e.Source, e.Target == id })
}

// Outgoers returns the distinct targets of edges out of id.
func (s *Store) Outgoers(ctx context.Context, id string) ([]string, error) {
	return s.neighbours(id, func(e node.Edge) (string, bool) { return e.Target, e.Source == id })
}

func (s *Store) neighbours(id string, pick func(node.Edge) (string, bool)) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound)
	}
	ids := []string{}
	for _, e := range s.edges {
		if other, ok := pick(e); ok && !slices.Contains(ids, other) {
			ids = append(ids, other)
		}
	}
	return ids, nil
}

// ConnectedEdges returns every edge touching id.
func (s *Store) ConnectedEdges(ctx context.Context, id string) ([]node.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound)
	}
	edges := []node.Edge{}
	for _, e := range s.edges {
		if e.Touches(id) {
			edges = append(edges, e)
		}
	}
	return edges, nil
}

// Value returns a copy of the node's current value.
func (s *Store) Value(ctx context.Context, id string) (*float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound)
	}
	return node.CopyValue(n.Data.Value), nil
}
