package inmemorygraph

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/graphstore"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/nodeid"
)

// Replace swaps in a whole new graph after validating it. Sink capacity is
// not enforced, since restitching may legitimately leave a Sink with several
// inputs.
func (s *Store) Replace(ctx context.Context, nodes []node.Node, edges []node.Edge) error {
	next := &Store{nodes: make(map[string]*node.Node, len(nodes))}

	var errs []error
	for _, n := range nodes {
		if err := nodeid.Validate(n.ID); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", graphstore.ErrInvalidID, err))
			continue
		}
		if !slices.Contains(node.Kinds, n.Kind) {
			errs = append(errs, fmt.Errorf("node '%s' has unknown kind %d: %w", n.ID, int(n.Kind), graphstore.ErrInvalidValue))
			continue
		}
		if _, dup := next.nodes[n.ID]; dup {
			errs = append(errs, fmt.Errorf("node '%s': %w", n.ID, graphstore.ErrDuplicateNodeID))
			continue
		}
		if err := checkValue(n.Data.Value); err != nil {
			errs = append(errs, fmt.Errorf("node '%s': %w", n.ID, err))
			continue
		}
		c := n.Clone()
		next.nodes[c.ID] = &c
		next.order = append(next.order, c.ID)
	}

	for _, e := range edges {
		if e.ID == "" {
			e.ID = EdgeID(e.Source, e.SourceHandle, e.Target)
		}
		_, srcOK := next.nodes[e.Source]
		_, tgtOK := next.nodes[e.Target]
		if !srcOK || !tgtOK {
			errs = append(errs, fmt.Errorf("edge '%s' (%s -> %s): %w", e.ID, e.Source, e.Target, graphstore.ErrDanglingEdge))
			continue
		}
		if err := next.checkConnection(e.Source, e.Target, e.SourceHandle, "", false); err != nil {
			errs = append(errs, fmt.Errorf("edge '%s': %w", e.ID, err))
			continue
		}
		if next.edgeIndex(e.ID) >= 0 {
			errs = append(errs, fmt.Errorf("edge '%s': %w", e.ID, graphstore.ErrDuplicateEdge))
			continue
		}
		next.edges = append(next.edges, e)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid graph: %w", err)
	}

	s.mu.Lock()
	s.nodes = next.nodes
	s.order = next.order
	s.edges = next.edges
	s.ids.Reset()
	for _, id := range s.order {
		s.ids.Observe(id)
	}
	ids := slices.Clone(s.order)
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Graph replaced.", "nodes", len(ids), "edges", len(edges))
	s.emit(ctx, graphstore.Change{Kind: graphstore.GraphReplaced, Nodes: ids})
	return nil
}
