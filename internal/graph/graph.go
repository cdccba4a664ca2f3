package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/evaluator"
	"github.com/vk/flowcalc/internal/graphstore"
	"github.com/vk/flowcalc/internal/inmemorygraph"
	"github.com/vk/flowcalc/internal/inmemorystore"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/nodestore"
	"github.com/vk/flowcalc/internal/recompute"
	"github.com/vk/flowcalc/internal/reference"
)

// Manager implements Graph by composing a graph store, a node state store
// and a recompute engine.
type Manager struct {
	mu     sync.Mutex // serializes mutations
	store  graphstore.Store
	states nodestore.Store
	engine *recompute.Engine
	stop   func()
}

var _ Graph = (*Manager)(nil)

// New creates a manager over the given stores and subscribes a recompute
// engine to the graph store.
func New(store graphstore.Store, states nodestore.Store, eval *evaluator.Evaluator) *Manager {
	engine := recompute.New(store, states, eval)
	return &Manager{
		store:  store,
		states: states,
		engine: engine,
		stop:   engine.Start(),
	}
}

// NewInMemory creates a manager backed by the in-memory stores.
func NewInMemory() *Manager {
	return New(inmemorygraph.New(), inmemorystore.New(), evaluator.New())
}

// Close detaches the recompute engine. The graph stays readable.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
}

// Engine exposes the recompute engine, mainly for its write counter.
func (m *Manager) Engine() *recompute.Engine {
	return m.engine
}

func (m *Manager) AddNode(ctx context.Context, kind node.Kind, pos node.Position, data *node.Data) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.AddNode(ctx, kind, pos, data)
}

func (m *Manager) RemoveNodes(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch len(ids) {
	case 0:
		return nil
	case 1:
		return m.store.RemoveNode(ctx, ids[0])
	default:
		return m.store.RemoveNodes(ctx, ids...)
	}
}

func (m *Manager) Connect(ctx context.Context, source, target, handle string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.AddEdge(ctx, source, target, handle)
}

func (m *Manager) Disconnect(ctx context.Context, edgeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.RemoveEdge(ctx, edgeID)
}

func (m *Manager) Reconnect(ctx context.Context, edgeID, source, target string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.ReconnectEdge(ctx, edgeID, source, target)
}

func (m *Manager) SetValue(ctx context.Context, id string, v float64) error {
	return m.editNumber(ctx, id, graphstore.Patch{Value: &v})
}

func (m *Manager) ClearValue(ctx context.Context, id string) error {
	return m.editNumber(ctx, id, graphstore.Patch{ClearValue: true})
}

// editNumber applies a value patch. Only number nodes carry user values;
// the values of functions and results belong to the engine.
func (m *Manager) editNumber(ctx context.Context, id string, patch graphstore.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.store.Node(ctx, id)
	if !ok {
		return fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound)
	}
	if n.Kind != node.ValueSource {
		return fmt.Errorf("node '%s' is a %s, its value is computed: %w", id, n.Kind, graphstore.ErrInvalidValue)
	}
	return m.store.UpdateNodeData(ctx, id, patch)
}

func (m *Manager) SetExpression(ctx context.Context, id, expr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.UpdateNodeData(ctx, id, graphstore.Patch{Expression: &expr})
}

func (m *Manager) SetLabel(ctx context.Context, id, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.UpdateNodeData(ctx, id, graphstore.Patch{Label: &label})
}

func (m *Manager) Move(ctx context.Context, id string, pos node.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.UpdateNodeData(ctx, id, graphstore.Patch{Position: &pos})
}

func (m *Manager) Value(ctx context.Context, id string) (*float64, error) {
	return m.store.Value(ctx, id)
}

func (m *Manager) Node(ctx context.Context, id string) (node.Node, error) {
	n, ok := m.store.Node(ctx, id)
	if !ok {
		return node.Node{}, fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound)
	}
	return n, nil
}

func (m *Manager) Nodes(ctx context.Context) []node.Node {
	return m.store.Nodes(ctx)
}

func (m *Manager) Edges(ctx context.Context) []node.Edge {
	return m.store.Edges(ctx)
}

func (m *Manager) Status(ctx context.Context, id string) (State, error) {
	if _, ok := m.store.Node(ctx, id); !ok {
		return State{}, fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound)
	}
	status, err := m.states.GetStatus(ctx, id)
	if err != nil {
		return State{}, fmt.Errorf("failed to read status of node '%s': %w", id, err)
	}
	nodeErr, err := m.states.GetError(ctx, id)
	if err != nil {
		return State{}, fmt.Errorf("failed to read error of node '%s': %w", id, err)
	}
	return State{Status: status, Err: nodeErr}, nil
}

func (m *Manager) Candidates(ctx context.Context, id string) ([]string, error) {
	incomers, err := m.store.Incomers(ctx, id)
	if err != nil {
		return nil, err
	}
	return reference.Candidates(incomers), nil
}

func (m *Manager) References(ctx context.Context, id string) (reference.Resolution, error) {
	n, ok := m.store.Node(ctx, id)
	if !ok {
		return reference.Resolution{}, fmt.Errorf("node '%s': %w", id, graphstore.ErrNotFound)
	}
	incomers, err := m.store.Incomers(ctx, id)
	if err != nil {
		return reference.Resolution{}, err
	}
	return reference.Resolve(n.Data.Expression, incomers), nil
}

// Snapshot copies the graph. Edges whose endpoints are missing from the
// node list, which can only happen when a mutation races the copy, are
// left out.
func (m *Manager) Snapshot(ctx context.Context) Snapshot {
	nodes := m.store.Nodes(ctx)
	known := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		known[n.ID] = struct{}{}
	}

	edges := m.store.Edges(ctx)
	kept := edges[:0]
	for _, e := range edges {
		_, src := known[e.Source]
		_, tgt := known[e.Target]
		if src && tgt {
			kept = append(kept, e)
		}
	}
	return Snapshot{Nodes: nodes, Edges: kept}
}

func (m *Manager) Restore(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Replace(ctx, snap.Nodes, snap.Edges); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Graph restored.", "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return nil
}

// RecomputeAll re-evaluates every derived node.
func (m *Manager) RecomputeAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine.RecomputeAll(ctx)
}

func (m *Manager) OnValue(l ValueListener) func() {
	return m.store.Subscribe(func(ctx context.Context, c graphstore.Change) {
		if c.Kind != graphstore.NodeUpdated || !c.Fields.Has(graphstore.FieldValue) {
			return
		}
		id := c.Nodes[0]
		v, err := m.store.Value(ctx, id)
		if err != nil {
			return
		}
		l(ctx, id, v)
	})
}

func (m *Manager) OnChange(l graphstore.Listener) func() {
	return m.store.Subscribe(l)
}
