package inmemorygraph

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowcalc/internal/graphstore"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/testutil"
)

type recorder struct {
	mu      sync.Mutex
	changes []graphstore.Change
}

func (r *recorder) listen(_ context.Context, c graphstore.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) kinds() []graphstore.ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]graphstore.ChangeKind, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Kind)
	}
	return out
}

func newStore(t *testing.T) (*Store, context.Context, *recorder) {
	t.Helper()
	s := New()
	rec := &recorder{}
	s.Subscribe(rec.listen)
	return s, testutil.Context(t), rec
}

func mustAdd(t *testing.T, ctx context.Context, s *Store, kind node.Kind) string {
	t.Helper()
	id, err := s.AddNode(ctx, kind, node.Position{}, nil)
	require.NoError(t, err)
	return id
}

func mustConnect(t *testing.T, ctx context.Context, s *Store, source, target string) string {
	t.Helper()
	id, err := s.AddEdge(ctx, source, target, "")
	require.NoError(t, err)
	return id
}

func TestAddNode_GeneratesIDsAndDefaults(t *testing.T) {
	s, ctx, rec := newStore(t)

	n1 := mustAdd(t, ctx, s, node.ValueSource)
	n2 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)
	r1, err := s.AddNode(ctx, node.Sink, node.Position{X: 10, Y: 20}, &node.Data{Label: "Total"})
	require.NoError(t, err)

	assert.Equal(t, []string{"number_1", "number_2", "function_1", "result_1"}, []string{n1, n2, f1, r1})

	num, ok := s.Node(ctx, n2)
	require.True(t, ok)
	assert.Equal(t, "Number 2", num.Data.Label)
	require.NotNil(t, num.Data.Value)
	assert.Equal(t, 0.0, *num.Data.Value)

	res, _ := s.Node(ctx, r1)
	assert.Equal(t, "Total", res.Data.Label)
	assert.Equal(t, node.Position{X: 10, Y: 20}, res.Position)
	assert.Nil(t, res.Data.Value)

	assert.Equal(t, []graphstore.ChangeKind{
		graphstore.NodeAdded, graphstore.NodeAdded, graphstore.NodeAdded, graphstore.NodeAdded,
	}, rec.kinds())
}

func TestAddNode_RejectsNonFiniteValue(t *testing.T) {
	s, ctx, rec := newStore(t)

	_, err := s.AddNode(ctx, node.ValueSource, node.Position{}, &node.Data{Value: node.Float(math.Inf(1))})

	assert.ErrorIs(t, err, graphstore.ErrInvalidValue)
	assert.Empty(t, s.Nodes(ctx))
	assert.Empty(t, rec.kinds())
}

func TestAddEdge(t *testing.T) {
	s, ctx, rec := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)

	id, err := s.AddEdge(ctx, n1, f1, "")
	require.NoError(t, err)
	assert.Equal(t, "xy-edge__number_1-function_1", id)

	e, ok := s.Edge(ctx, id)
	require.True(t, ok)
	assert.True(t, e.Animated)

	last := rec.changes[len(rec.changes)-1]
	assert.Equal(t, graphstore.EdgeAdded, last.Kind)
	assert.Equal(t, []string{n1, f1}, last.Nodes)
	assert.Equal(t, []node.Edge{e}, last.Added)
}

func TestAddEdge_Rejections(t *testing.T) {
	s, ctx, _ := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	n2 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)
	r1 := mustAdd(t, ctx, s, node.Sink)
	mustConnect(t, ctx, s, n1, f1)
	mustConnect(t, ctx, s, n1, r1)

	testCases := []struct {
		name   string
		source string
		target string
		want   error
	}{
		{name: "unknown source", source: "number_9", target: f1, want: graphstore.ErrNotFound},
		{name: "unknown target", source: n1, target: "function_9", want: graphstore.ErrNotFound},
		{name: "self loop", source: f1, target: f1, want: graphstore.ErrInvalidConnection},
		{name: "into value source", source: f1, target: n2, want: graphstore.ErrInvalidConnection},
		{name: "out of sink", source: r1, target: f1, want: graphstore.ErrInvalidConnection},
		{name: "duplicate", source: n1, target: f1, want: graphstore.ErrDuplicateEdge},
		{name: "sink at capacity", source: n2, target: r1, want: graphstore.ErrCapacityExceeded},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := s.Edges(ctx)
			_, err := s.AddEdge(ctx, tc.source, tc.target, "")
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, before, s.Edges(ctx), "state must be unchanged")
		})
	}
}

func TestAddEdge_HandleDistinguishesOutputs(t *testing.T) {
	s, ctx, _ := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)

	_, err := s.AddEdge(ctx, n1, f1, "a")
	require.NoError(t, err)
	id, err := s.AddEdge(ctx, n1, f1, "b")
	require.NoError(t, err)
	assert.Equal(t, "xy-edge__number_1b-function_1", id)

	incomers, err := s.Incomers(ctx, f1)
	require.NoError(t, err)
	assert.Equal(t, []string{n1}, incomers)
}

func TestRemoveEdge(t *testing.T) {
	s, ctx, rec := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)
	id := mustConnect(t, ctx, s, n1, f1)

	require.NoError(t, s.RemoveEdge(ctx, id))
	assert.Empty(t, s.Edges(ctx))
	assert.Equal(t, graphstore.EdgeRemoved, rec.changes[len(rec.changes)-1].Kind)

	count := len(rec.changes)
	err := s.RemoveEdge(ctx, id)
	assert.ErrorIs(t, err, graphstore.ErrNotFound)
	assert.Len(t, rec.changes, count, "a rejected operation emits nothing")
}

func TestReconnectEdge(t *testing.T) {
	s, ctx, rec := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	n2 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)
	r1 := mustAdd(t, ctx, s, node.Sink)
	first := mustConnect(t, ctx, s, n1, f1)
	toSink := mustConnect(t, ctx, s, n1, r1)

	// Moving the Sink's only input to another source stays within capacity.
	newID, err := s.ReconnectEdge(ctx, toSink, n2, r1)
	require.NoError(t, err)
	assert.Equal(t, "xy-edge__number_2-result_1", newID)

	last := rec.changes[len(rec.changes)-1]
	assert.Equal(t, graphstore.EdgeReconnected, last.Kind)
	assert.ElementsMatch(t, []string{n1, r1, n2}, last.Nodes)

	edges := s.Edges(ctx)
	require.Len(t, edges, 2)
	assert.Equal(t, first, edges[0].ID)
	assert.Equal(t, newID, edges[1].ID, "reconnect keeps the edge's position")

	_, err = s.ReconnectEdge(ctx, first, f1, r1)
	assert.ErrorIs(t, err, graphstore.ErrCapacityExceeded)

	_, err = s.ReconnectEdge(ctx, "missing", n1, f1)
	assert.ErrorIs(t, err, graphstore.ErrNotFound)

	same, err := s.ReconnectEdge(ctx, first, n1, f1)
	require.NoError(t, err)
	assert.Equal(t, first, same)
}

func TestRemoveNode_Restitches(t *testing.T) {
	s, ctx, rec := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)
	r1 := mustAdd(t, ctx, s, node.Sink)
	mustConnect(t, ctx, s, n1, f1)
	mustConnect(t, ctx, s, f1, r1)

	require.NoError(t, s.RemoveNode(ctx, f1))

	_, ok := s.Node(ctx, f1)
	assert.False(t, ok)
	edges := s.Edges(ctx)
	require.Len(t, edges, 1)
	assert.Equal(t, node.Edge{ID: "number_1->result_1", Source: n1, Target: r1}, edges[0])

	last := rec.changes[len(rec.changes)-1]
	assert.Equal(t, graphstore.NodeRemoved, last.Kind)
	assert.Equal(t, f1, last.Nodes[0])
	assert.Len(t, last.Removed, 2)
	assert.Len(t, last.Added, 1)
	assert.NoError(t, s.Validate(ctx))

	assert.ErrorIs(t, s.RemoveNode(ctx, f1), graphstore.ErrNotFound)
}

func TestRemoveNodes_Batch(t *testing.T) {
	s, ctx, rec := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)
	f2 := mustAdd(t, ctx, s, node.Function)
	r1 := mustAdd(t, ctx, s, node.Sink)
	mustConnect(t, ctx, s, n1, f2)
	mustConnect(t, ctx, s, f2, f1)
	mustConnect(t, ctx, s, f1, r1)
	before := len(rec.changes)

	err := s.RemoveNodes(ctx, f2, "function_9", f1)

	assert.ErrorIs(t, err, graphstore.ErrNotFound)
	edges := s.Edges(ctx)
	require.Len(t, edges, 1)
	assert.Equal(t, n1, edges[0].Source)
	assert.Equal(t, r1, edges[0].Target)

	removed := rec.changes[before:]
	require.Len(t, removed, 2)
	assert.Equal(t, f1, removed[0].Nodes[0], "deletions are processed in sorted order")
	assert.Equal(t, f2, removed[1].Nodes[0])
	assert.NoError(t, s.Validate(ctx))
}

func TestUpdateNodeData(t *testing.T) {
	s, ctx, rec := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)
	before := len(rec.changes)

	require.NoError(t, s.UpdateNodeData(ctx, n1, graphstore.Patch{Value: node.Float(21)}))
	v, err := s.Value(ctx, n1)
	require.NoError(t, err)
	assert.Equal(t, 21.0, *v)
	require.Len(t, rec.changes, before+1)
	assert.True(t, rec.changes[before].Fields.Has(graphstore.FieldValue))

	// Writing the same value is a no-op and emits nothing.
	require.NoError(t, s.UpdateNodeData(ctx, n1, graphstore.Patch{Value: node.Float(21)}))
	require.NoError(t, s.UpdateNodeData(ctx, n1, graphstore.Patch{}))
	assert.Len(t, rec.changes, before+1)

	expr := "@number_1 * 2"
	require.NoError(t, s.UpdateNodeData(ctx, f1, graphstore.Patch{Expression: &expr}))
	assert.True(t, rec.changes[len(rec.changes)-1].Fields.Has(graphstore.FieldExpression))

	require.NoError(t, s.UpdateNodeData(ctx, n1, graphstore.Patch{ClearValue: true}))
	v, _ = s.Value(ctx, n1)
	assert.Nil(t, v)

	assert.ErrorIs(t, s.UpdateNodeData(ctx, n1, graphstore.Patch{Expression: &expr}), graphstore.ErrInvalidValue)
	assert.ErrorIs(t, s.UpdateNodeData(ctx, n1, graphstore.Patch{Value: node.Float(math.NaN())}), graphstore.ErrInvalidValue)
	assert.ErrorIs(t, s.UpdateNodeData(ctx, "number_9", graphstore.Patch{ClearValue: true}), graphstore.ErrNotFound)
}

func TestIncomersOutgoersConnected(t *testing.T) {
	s, ctx, _ := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	n2 := mustAdd(t, ctx, s, node.ValueSource)
	f1 := mustAdd(t, ctx, s, node.Function)
	r1 := mustAdd(t, ctx, s, node.Sink)
	mustConnect(t, ctx, s, n2, f1)
	mustConnect(t, ctx, s, n1, f1)
	mustConnect(t, ctx, s, f1, r1)

	incomers, err := s.Incomers(ctx, f1)
	require.NoError(t, err)
	assert.Equal(t, []string{n2, n1}, incomers, "edge-insertion order")

	outgoers, err := s.Outgoers(ctx, f1)
	require.NoError(t, err)
	assert.Equal(t, []string{r1}, outgoers)

	connected, err := s.ConnectedEdges(ctx, f1)
	require.NoError(t, err)
	assert.Len(t, connected, 3)

	none, err := s.Incomers(ctx, n1)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = s.Outgoers(ctx, "zzz")
	assert.ErrorIs(t, err, graphstore.ErrNotFound)
	_, err = s.ConnectedEdges(ctx, "zzz")
	assert.ErrorIs(t, err, graphstore.ErrNotFound)
	_, err = s.Value(ctx, "zzz")
	assert.ErrorIs(t, err, graphstore.ErrNotFound)
}

func TestReplace(t *testing.T) {
	s, ctx, rec := newStore(t)
	mustAdd(t, ctx, s, node.ValueSource)

	nodes := []node.Node{
		{ID: "number_4", Kind: node.ValueSource, Data: node.Data{Label: "A", Value: node.Float(1)}},
		{ID: "number_7", Kind: node.ValueSource, Data: node.Data{Label: "B", Value: node.Float(2)}},
		{ID: "result_1", Kind: node.Sink},
	}
	edges := []node.Edge{
		{ID: "number_4->result_1", Source: "number_4", Target: "result_1"},
		{Source: "number_7", Target: "result_1"},
	}

	require.NoError(t, s.Replace(ctx, nodes, edges))

	assert.Len(t, s.Nodes(ctx), 3)
	got := s.Edges(ctx)
	require.Len(t, got, 2, "a Sink may hold several inputs after a load")
	assert.Equal(t, "xy-edge__number_7-result_1", got[1].ID)
	assert.Equal(t, graphstore.GraphReplaced, rec.changes[len(rec.changes)-1].Kind)

	next := mustAdd(t, ctx, s, node.ValueSource)
	assert.Equal(t, "number_8", next, "generated ids stay ahead of loaded ones")
}

func TestReplace_InvalidKeepsPreviousGraph(t *testing.T) {
	s, ctx, _ := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)

	testCases := []struct {
		name  string
		nodes []node.Node
		edges []node.Edge
		want  error
	}{
		{
			name:  "dangling edge",
			nodes: []node.Node{{ID: "a", Kind: node.ValueSource}},
			edges: []node.Edge{{Source: "a", Target: "b"}},
			want:  graphstore.ErrDanglingEdge,
		},
		{
			name:  "duplicate id",
			nodes: []node.Node{{ID: "a", Kind: node.ValueSource}, {ID: "a", Kind: node.Sink}},
			want:  graphstore.ErrDuplicateNodeID,
		},
		{
			name:  "invalid id",
			nodes: []node.Node{{ID: "a-b", Kind: node.ValueSource}},
			want:  graphstore.ErrInvalidID,
		},
		{
			name:  "edge into value source",
			nodes: []node.Node{{ID: "a", Kind: node.ValueSource}, {ID: "b", Kind: node.ValueSource}},
			edges: []node.Edge{{Source: "a", Target: "b"}},
			want:  graphstore.ErrInvalidConnection,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Replace(ctx, tc.nodes, tc.edges)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)

			nodes := s.Nodes(ctx)
			require.Len(t, nodes, 1)
			assert.Equal(t, n1, nodes[0].ID)
		})
	}
}

func TestNode_ReturnsCopy(t *testing.T) {
	s, ctx, _ := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)

	n, _ := s.Node(ctx, n1)
	*n.Data.Value = 99

	v, _ := s.Value(ctx, n1)
	assert.Equal(t, 0.0, *v)
}

func TestEmit_QueuesReentrantChanges(t *testing.T) {
	s, ctx, _ := newStore(t)
	n1 := mustAdd(t, ctx, s, node.ValueSource)
	n2 := mustAdd(t, ctx, s, node.ValueSource)

	var (
		depth, maxDepth int
		order           []string
	)
	unsubscribe := s.Subscribe(func(ctx context.Context, c graphstore.Change) {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		order = append(order, c.Nodes[0])
		if c.Nodes[0] == n1 {
			require.NoError(t, s.UpdateNodeData(ctx, n2, graphstore.Patch{Value: node.Float(5)}))
			order = append(order, "after-write")
		}
		depth--
	})
	defer unsubscribe()

	require.NoError(t, s.UpdateNodeData(ctx, n1, graphstore.Patch{Value: node.Float(1)}))

	assert.Equal(t, 1, maxDepth, "listeners are never re-entered")
	assert.Equal(t, []string{n1, "after-write", n2}, order)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	s := New()
	ctx := testutil.Context(t)
	calls := 0
	unsubscribe := s.Subscribe(func(context.Context, graphstore.Change) { calls++ })

	mustAdd(t, ctx, s, node.ValueSource)
	unsubscribe()
	mustAdd(t, ctx, s, node.ValueSource)

	assert.Equal(t, 1, calls)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	ctx := testutil.Context(t)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.AddNode(ctx, node.ValueSource, node.Position{}, nil)
			if err != nil {
				t.Errorf("add node: %v", err)
				return
			}
			s.Value(ctx, id)
			s.Nodes(ctx)
		}()
	}
	wg.Wait()

	assert.Len(t, s.Nodes(ctx), 50)
	assert.NoError(t, s.Validate(ctx))
}
