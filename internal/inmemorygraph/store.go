package inmemorygraph

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/graphstore"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/nodeid"
	"github.com/vk/flowcalc/internal/restitch"
)

// Store implements graphstore.Store with maps, slices and a mutex.
type Store struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]*node.Node
	edges []node.Edge
	ids   *nodeid.Generator

	subMu   sync.Mutex
	subs    []subscription
	nextSub int

	outMu       sync.Mutex
	outbox      []event
	dispatching bool
}

type subscription struct {
	id int
	fn graphstore.Listener
}

type event struct {
	ctx    context.Context
	change graphstore.Change
}

var _ graphstore.Store = (*Store)(nil)

// New creates a new, empty in-memory graph store.
func New() *Store {
	return &Store{
		nodes: make(map[string]*node.Node),
		ids:   nodeid.NewGenerator(),
	}
}

// EdgeID returns the id given to a user-created edge.
func EdgeID(source, handle, target string) string {
	return "xy-edge__" + source + handle + "-" + target
}

// AddNode adds a new node with generated id and default data.
func (s *Store) AddNode(ctx context.Context, kind node.Kind, pos node.Position, data *node.Data) (string, error) {
	if !slices.Contains(node.Kinds, kind) {
		return "", fmt.Errorf("cannot add node of %s: %w", kind, graphstore.ErrInvalidValue)
	}
	if data != nil {
		if err := checkValue(data.Value); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	addr := s.ids.Next(kind.String(), func(id string) bool {
		_, taken := s.nodes[id]
		return taken
	})
	n := &node.Node{ID: addr.String(), Kind: kind, Position: pos, Data: node.DefaultData(kind, addr.Seq)}
	if data != nil {
		if data.Label != "" {
			n.Data.Label = data.Label
		}
		if data.Value != nil {
			n.Data.Value = node.CopyValue(data.Value)
		}
		if data.Expression != "" {
			n.Data.Expression = data.Expression
		}
	}
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Node added.", "id", n.ID, "kind", kind.String())
	s.emit(ctx, graphstore.Change{Kind: graphstore.NodeAdded, Nodes: []string{n.ID}})
	return n.ID, nil
}

// RemoveNode restitches around id and then removes it.
func (s *Store) RemoveNode(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.nodes[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound)
	}
	res := restitch.Restitch(s.edges, id)
	s.edges = res.Edges
	s.dropNode(id)
	s.mu.Unlock()

	s.emit(ctx, removalChange(ctx, res))
	return nil
}

// RemoveNodes removes every known id in sorted order over one rolling edge
// set, then reports unknown ids.
func (s *Store) RemoveNodes(ctx context.Context, ids ...string) error {
	var (
		known   []string
		missing []error
	)

	s.mu.Lock()
	for _, id := range ids {
		if _, ok := s.nodes[id]; ok {
			known = append(known, id)
		} else {
			missing = append(missing, fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound))
		}
	}
	results := restitch.Batch(s.edges, known)
	if len(results) > 0 {
		s.edges = results[len(results)-1].Edges
	}
	for _, res := range results {
		s.dropNode(res.Node)
	}
	s.mu.Unlock()

	for _, res := range results {
		s.emit(ctx, removalChange(ctx, res))
	}
	return errors.Join(missing...)
}

func removalChange(ctx context.Context, res restitch.Result) graphstore.Change {
	ctxlog.FromContext(ctx).Debug("Node removed and edges restitched.",
		"id", res.Node, "removed_edges", len(res.Removed), "added_edges", len(res.Added))

	affected := []string{res.Node}
	for _, e := range res.Removed {
		for _, id := range []string{e.Source, e.Target} {
			if !slices.Contains(affected, id) {
				affected = append(affected, id)
			}
		}
	}
	return graphstore.Change{
		Kind:    graphstore.NodeRemoved,
		Nodes:   affected,
		Removed: res.Removed,
		Added:   res.Added,
	}
}

// dropNode must be called with s.mu held.
func (s *Store) dropNode(id string) {
	delete(s.nodes, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
}

// AddEdge validates and appends a new edge.
func (s *Store) AddEdge(ctx context.Context, source, target, handle string) (string, error) {
	s.mu.Lock()
	if err := s.checkConnection(source, target, handle, "", true); err != nil {
		s.mu.Unlock()
		return "", err
	}
	e := node.Edge{ID: EdgeID(source, handle, target), Source: source, Target: target, SourceHandle: handle, Animated: true}
	if s.edgeIndex(e.ID) >= 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("edge '%s': %w", e.ID, graphstore.ErrDuplicateEdge)
	}
	s.edges = append(s.edges, e)
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Edge added.", "edge", e.String())
	s.emit(ctx, graphstore.Change{
		Kind:  graphstore.EdgeAdded,
		Nodes: []string{source, target},
		Added: []node.Edge{e},
	})
	return e.ID, nil
}

// RemoveEdge deletes the edge with the given id.
func (s *Store) RemoveEdge(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.edgeIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("edge '%s': %w", id, graphstore.ErrNotFound)
	}
	e := s.edges[idx]
	s.edges = slices.Delete(s.edges, idx, idx+1)
	s.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Edge removed.", "edge", e.String())
	s.emit(ctx, graphstore.Change{
		Kind:    graphstore.EdgeRemoved,
		Nodes:   []string{e.Source, e.Target},
		Removed: []node.Edge{e},
	})
	return nil
}

// ReconnectEdge replaces an edge in place with one between new endpoints.
func (s *Store) ReconnectEdge(ctx context.Context, oldID, newSource, newTarget string) (string, error) {
	s.mu.Lock()
	idx := s.edgeIndex(oldID)
	if idx < 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("edge '%s': %w", oldID, graphstore.ErrNotFound)
	}
	old := s.edges[idx]
	if old.Source == newSource && old.Target == newTarget {
		s.mu.Unlock()
		return old.ID, nil
	}

	handle := old.SourceHandle
	if newSource != old.Source {
		handle = ""
	}
	if err := s.checkConnection(newSource, newTarget, handle, oldID, true); err != nil {
		s.mu.Unlock()
		return "", err
	}
	e := node.Edge{
		ID:           EdgeID(newSource, handle, newTarget),
		Source:       newSource,
		Target:       newTarget,
		SourceHandle: handle,
		Animated:     old.Animated,
	}
	if other := s.edgeIndex(e.ID); other >= 0 && other != idx {
		s.mu.Unlock()
		return "", fmt.Errorf("edge '%s': %w", e.ID, graphstore.ErrDuplicateEdge)
	}
	s.edges[idx] = e
	s.mu.Unlock()

	affected := []string{old.Source, old.Target}
	for _, id := range []string{newSource, newTarget} {
		if !slices.Contains(affected, id) {
			affected = append(affected, id)
		}
	}
	ctxlog.FromContext(ctx).Debug("Edge reconnected.", "old", old.String(), "new", e.String())
	s.emit(ctx, graphstore.Change{
		Kind:    graphstore.EdgeReconnected,
		Nodes:   affected,
		Removed: []node.Edge{old},
		Added:   []node.Edge{e},
	})
	return e.ID, nil
}

// checkConnection must be called with s.mu held. The edge named ignore is
// left out of the duplicate and capacity checks.
func (s *Store) checkConnection(source, target, handle, ignore string, capacity bool) error {
	src, ok := s.nodes[source]
	if !ok {
		return fmt.Errorf("source node '%s': %w", source, graphstore.ErrNotFound)
	}
	tgt, ok := s.nodes[target]
	if !ok {
		return fmt.Errorf("target node '%s': %w", target, graphstore.ErrNotFound)
	}
	if source == target {
		return fmt.Errorf("node '%s' cannot connect to itself: %w", source, graphstore.ErrInvalidConnection)
	}
	if !src.Kind.ProvidesOutput() {
		return fmt.Errorf("%s node '%s' has no output: %w", src.Kind, source, graphstore.ErrInvalidConnection)
	}
	if !tgt.Kind.AcceptsInput() {
		return fmt.Errorf("%s node '%s' has no input: %w", tgt.Kind, target, graphstore.ErrInvalidConnection)
	}

	inputs := 0
	for _, e := range s.edges {
		if e.ID == ignore || e.Target != target {
			continue
		}
		if e.Source == source && e.SourceHandle == handle {
			return fmt.Errorf("'%s' is already connected to '%s': %w", source, target, graphstore.ErrDuplicateEdge)
		}
		inputs++
	}
	if limit := tgt.Kind.InputCapacity(); capacity && limit >= 0 && inputs >= limit {
		return fmt.Errorf("%s node '%s' accepts %d input(s): %w", tgt.Kind, target, limit, graphstore.ErrCapacityExceeded)
	}
	return nil
}

// edgeIndex must be called with s.mu held.
func (s *Store) edgeIndex(id string) int {
	return slices.IndexFunc(s.edges, func(e node.Edge) bool { return e.ID == id })
}

// UpdateNodeData applies a partial update and reports the changed fields.
func (s *Store) UpdateNodeData(ctx context.Context, id string, patch graphstore.Patch) error {
	if err := checkValue(patch.Value); err != nil {
		return err
	}

	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound)
	}
	if patch.Expression != nil && n.Kind != node.Function {
		s.mu.Unlock()
		return fmt.Errorf("%s node '%s' has no expression: %w", n.Kind, id, graphstore.ErrInvalidValue)
	}

	var fields graphstore.Field
	if patch.Label != nil && *patch.Label != n.Data.Label {
		n.Data.Label = *patch.Label
		fields |= graphstore.FieldLabel
	}
	if patch.Value != nil && !node.SameValue(patch.Value, n.Data.Value) {
		n.Data.Value = node.CopyValue(patch.Value)
		fields |= graphstore.FieldValue
	} else if patch.Value == nil && patch.ClearValue && n.Data.Value != nil {
		n.Data.Value = nil
		fields |= graphstore.FieldValue
	}
	if patch.Expression != nil && *patch.Expression != n.Data.Expression {
		n.Data.Expression = *patch.Expression
		fields |= graphstore.FieldExpression
	}
	if patch.Position != nil && *patch.Position != n.Position {
		n.Position = *patch.Position
		fields |= graphstore.FieldPosition
	}
	value := node.CopyValue(n.Data.Value)
	s.mu.Unlock()

	if fields == 0 {
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Node data updated.", "id", id, "value", node.FormatValue(value), "fields", int(fields))
	s.emit(ctx, graphstore.Change{Kind: graphstore.NodeUpdated, Nodes: []string{id}, Fields: fields})
	return nil
}

func checkValue(v *float64) error {
	if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
		return fmt.Errorf("value %v is not finite: %w", *v, graphstore.ErrInvalidValue)
	}
	return nil
}
