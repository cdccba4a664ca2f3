package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/flowcalc/internal/graphstore"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/testutil"
)

// demo builds the two-number sum graph with a result attached:
// number_1=21, number_2=21, function_1 = @number_1 + @number_2, result_1.
func demo(t *testing.T, ctx context.Context, m *Manager) {
	t.Helper()
	for _, v := range []float64{21, 21} {
		_, err := m.AddNode(ctx, node.ValueSource, node.Position{}, &node.Data{Value: node.Float(v)})
		require.NoError(t, err)
	}
	_, err := m.AddNode(ctx, node.Function, node.Position{X: 200}, &node.Data{Expression: "@number_1 + @number_2"})
	require.NoError(t, err)
	_, err = m.AddNode(ctx, node.Sink, node.Position{X: 400}, nil)
	require.NoError(t, err)

	for _, pair := range [][2]string{{"number_1", "function_1"}, {"number_2", "function_1"}, {"function_1", "result_1"}} {
		_, err := m.Connect(ctx, pair[0], pair[1], "")
		require.NoError(t, err)
	}
}

func values(ctx context.Context, m *Manager) map[string]string {
	out := make(map[string]string)
	for _, n := range m.Nodes(ctx) {
		out[n.ID] = node.FormatValue(n.Data.Value)
	}
	return out
}

func TestManager_DemoGraph(t *testing.T) {
	ctx := testutil.Context(t)
	m := NewInMemory()
	defer m.Close()
	demo(t, ctx, m)

	want := map[string]string{"number_1": "21", "number_2": "21", "function_1": "42", "result_1": "42"}
	if diff := cmp.Diff(want, values(ctx, m)); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	state, err := m.Status(ctx, "function_1")
	require.NoError(t, err)
	assert.Equal(t, node.StatusResolved, state.Status)
	assert.NoError(t, state.Err)
}

func TestManager_SetValueCascades(t *testing.T) {
	ctx := testutil.Context(t)
	m := NewInMemory()
	defer m.Close()
	demo(t, ctx, m)

	require.NoError(t, m.SetValue(ctx, "number_1", 30))

	v, err := m.Value(ctx, "result_1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 51.0, *v)
}

func TestManager_DisconnectIsFailSoft(t *testing.T) {
	ctx := testutil.Context(t)
	m := NewInMemory()
	defer m.Close()
	demo(t, ctx, m)

	var edgeID string
	for _, e := range m.Edges(ctx) {
		if e.Source == "number_1" {
			edgeID = e.ID
		}
	}
	require.NotEmpty(t, edgeID)
	require.NoError(t, m.Disconnect(ctx, edgeID))

	res, err := m.References(ctx, "function_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"number_1"}, res.Invalid)
	assert.Equal(t, " + number_2", res.Expression)

	v, err := m.Value(ctx, "function_1")
	require.NoError(t, err)
	require.NotNil(t, v, "value must be retained")
	assert.Equal(t, 42.0, *v)

	state, err := m.Status(ctx, "function_1")
	require.NoError(t, err)
	assert.Equal(t, node.StatusFailed, state.Status)
	assert.ErrorIs(t, state.Err, graphstore.ErrEvaluationFailure)
}

func TestManager_ValueEditsOnlyOnNumbers(t *testing.T) {
	ctx := testutil.Context(t)
	m := NewInMemory()
	defer m.Close()
	demo(t, ctx, m)

	testCases := []struct {
		name string
		id   string
		want error
	}{
		{name: "function", id: "function_1", want: graphstore.ErrInvalidValue},
		{name: "result", id: "result_1", want: graphstore.ErrInvalidValue},
		{name: "unknown", id: "number_9", want: graphstore.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, m.SetValue(ctx, tc.id, 1), tc.want)
			assert.ErrorIs(t, m.ClearValue(ctx, tc.id), tc.want)
		})
	}

	require.NoError(t, m.ClearValue(ctx, "number_2"))
	v, err := m.Value(ctx, "function_1")
	require.NoError(t, err)
	assert.Equal(t, 42.0, *v, "undefined input keeps the previous value")
}

func TestManager_CandidatesFollowConnectivity(t *testing.T) {
	ctx := testutil.Context(t)
	m := NewInMemory()
	defer m.Close()
	demo(t, ctx, m)

	got, err := m.Candidates(ctx, "function_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"number_1", "number_2"}, got)

	got, err = m.Candidates(ctx, "number_1")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = m.Candidates(ctx, "missing_1")
	assert.ErrorIs(t, err, graphstore.ErrNotFound)
}

func TestManager_OnValue(t *testing.T) {
	ctx := testutil.Context(t)
	m := NewInMemory()
	defer m.Close()
	demo(t, ctx, m)

	got := map[string]string{}
	unsubscribe := m.OnValue(func(ctx context.Context, id string, v *float64) {
		got[id] = node.FormatValue(v)
	})

	require.NoError(t, m.SetValue(ctx, "number_2", 9))
	unsubscribe()
	require.NoError(t, m.SetValue(ctx, "number_2", 10))

	want := map[string]string{"number_2": "9", "function_1": "30", "result_1": "30"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pushed values mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_SnapshotRestoreRoundTrip(t *testing.T) {
	ctx := testutil.Context(t)
	src := NewInMemory()
	defer src.Close()
	demo(t, ctx, src)
	_, err := src.AddNode(ctx, node.Function, node.Position{}, &node.Data{Expression: "@function_1 ^ 2 / @number_1"})
	require.NoError(t, err)
	_, err = src.Connect(ctx, "function_1", "function_2", "")
	require.NoError(t, err)
	_, err = src.Connect(ctx, "number_1", "function_2", "")
	require.NoError(t, err)

	snap := src.Snapshot(ctx)
	for i := range snap.Nodes {
		if snap.Nodes[i].Kind != node.ValueSource {
			snap.Nodes[i].Data.Value = nil
		}
	}

	dst := NewInMemory()
	defer dst.Close()
	require.NoError(t, dst.Restore(ctx, snap))

	if diff := cmp.Diff(values(ctx, src), values(ctx, dst)); diff != "" {
		t.Errorf("restored values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "84", values(ctx, dst)["function_2"])

	id, err := dst.AddNode(ctx, node.Function, node.Position{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "function_3", id, "restored ids advance the generator")
}

func TestManager_RestoreRejectsInvalidGraph(t *testing.T) {
	ctx := testutil.Context(t)
	m := NewInMemory()
	defer m.Close()
	demo(t, ctx, m)
	before := m.Snapshot(ctx)

	err := m.Restore(ctx, Snapshot{
		Nodes: []node.Node{{ID: "number_1", Kind: node.ValueSource}},
		Edges: []node.Edge{{Source: "number_1", Target: "function_1"}},
	})

	require.ErrorIs(t, err, graphstore.ErrDanglingEdge)
	if diff := cmp.Diff(before, m.Snapshot(ctx)); diff != "" {
		t.Errorf("graph changed after rejected restore (-want +got):\n%s", diff)
	}
}

func TestManager_ThreeCycleTerminates(t *testing.T) {
	ctx := testutil.Context(t)
	m := NewInMemory()
	defer m.Close()

	for _, expr := range []string{"@function_2 + 1", "@function_3 + 1", "@function_1 + 1"} {
		_, err := m.AddNode(ctx, node.Function, node.Position{}, &node.Data{Expression: expr})
		require.NoError(t, err)
	}
	for _, pair := range [][2]string{{"function_2", "function_1"}, {"function_3", "function_2"}, {"function_1", "function_3"}} {
		_, err := m.Connect(ctx, pair[0], pair[1], "")
		require.NoError(t, err)
	}

	for _, id := range []string{"function_1", "function_2", "function_3"} {
		v, err := m.Value(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, v, id)

		state, err := m.Status(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, node.StatusUnresolved, state.Status, id)
		assert.True(t, errors.Is(state.Err, graphstore.ErrCycleDetected), id)
	}
	assert.Zero(t, m.Engine().Writes())
}

// diamond builds n1 -> f1, n2 -> f1, f1 -> f2, f1 -> f3, f2 -> r1, n1 -> f3.
func diamond(t *testing.T, ctx context.Context) *Manager {
	t.Helper()
	m := NewInMemory()
	t.Cleanup(m.Close)
	for _, k := range []node.Kind{node.ValueSource, node.ValueSource, node.Function, node.Function, node.Function, node.Sink} {
		_, err := m.AddNode(ctx, k, node.Position{}, nil)
		require.NoError(t, err)
	}
	for _, pair := range [][2]string{
		{"number_1", "function_1"}, {"number_2", "function_1"},
		{"function_1", "function_2"}, {"function_1", "function_3"},
		{"function_2", "result_1"}, {"number_1", "function_3"},
	} {
		_, err := m.Connect(ctx, pair[0], pair[1], "")
		require.NoError(t, err)
	}
	return m
}

func TestManager_RemovePreservesReachability(t *testing.T) {
	ids := []string{"number_1", "number_2", "function_1", "function_2", "function_3", "result_1"}

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			ctx := testutil.Context(t)
			m := diamond(t, ctx)

			var ins, outs []string
			for _, e := range m.Edges(ctx) {
				if e.Target == id {
					ins = append(ins, e.Source)
				}
				if e.Source == id {
					outs = append(outs, e.Target)
				}
			}

			require.NoError(t, m.RemoveNodes(ctx, id))

			has := map[[2]string]bool{}
			for _, e := range m.Edges(ctx) {
				assert.False(t, e.Touches(id), "dangling edge %s", e)
				has[[2]string{e.Source, e.Target}] = true
			}
			for _, i := range ins {
				for _, o := range outs {
					assert.True(t, has[[2]string{i, o}], "missing %s -> %s", i, o)
				}
			}
		})
	}
}

func TestManager_RemoveBatch(t *testing.T) {
	ctx := testutil.Context(t)
	m := diamond(t, ctx)

	require.NoError(t, m.RemoveNodes(ctx, "function_2", "function_1"))

	var got [][2]string
	for _, e := range m.Edges(ctx) {
		got = append(got, [2]string{e.Source, e.Target})
	}
	assert.ElementsMatch(t, [][2]string{
		{"number_1", "function_3"},
		{"number_1", "result_1"},
		{"number_2", "result_1"},
		{"number_2", "function_3"},
	}, got)
}

func TestManager_RejectedOperationsLeaveStateUnchanged(t *testing.T) {
	ctx := testutil.Context(t)
	m := NewInMemory()
	defer m.Close()
	demo(t, ctx, m)
	before := m.Snapshot(ctx)

	_, err := m.Connect(ctx, "number_2", "result_1", "")
	assert.ErrorIs(t, err, graphstore.ErrCapacityExceeded)
	assert.Equal(t, graphstore.CodeCapacityExceeded, graphstore.Code(err))

	assert.ErrorIs(t, m.Disconnect(ctx, "nope"), graphstore.ErrNotFound)
	_, err = m.Reconnect(ctx, "nope", "number_1", "function_1")
	assert.ErrorIs(t, err, graphstore.ErrNotFound)

	if diff := cmp.Diff(before, m.Snapshot(ctx)); diff != "" {
		t.Errorf("graph changed (-want +got):\n%s", diff)
	}
}

func TestManager_ContextWithoutLogger(t *testing.T) {
	m := NewInMemory()
	t.Cleanup(m.Close)
	ctx := context.Background()

	require.NotPanics(t, func() { demo(t, ctx, m) })
	require.NoError(t, m.SetValue(ctx, "number_1", 30))
	require.NoError(t, m.RemoveNodes(ctx, "function_1"))

	v, err := m.Value(ctx, "result_1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 30.0, *v, "result_1 is restitched to number_1 and shows its value")
}
