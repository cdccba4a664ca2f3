package recompute

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/evaluator"
	"github.com/vk/flowcalc/internal/graphstore"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/nodestore"
	"github.com/vk/flowcalc/internal/reference"
)

// Engine reacts to graph changes and recomputes affected nodes.
type Engine struct {
	store  graphstore.Store
	states nodestore.Store
	eval   *evaluator.Evaluator

	mu       sync.Mutex
	queue    []string
	queued   map[string]struct{}
	draining bool

	writes atomic.Int64
}

// New creates an engine. Call Start to subscribe it to the store.
func New(store graphstore.Store, states nodestore.Store, eval *evaluator.Evaluator) *Engine {
	return &Engine{
		store:  store,
		states: states,
		eval:   eval,
		queued: make(map[string]struct{}),
	}
}

// Start subscribes the engine to its store and returns the unsubscribe func.
func (e *Engine) Start() func() {
	return e.store.Subscribe(e.HandleChange)
}

// Writes returns how many value writes the engine has issued.
func (e *Engine) Writes() int64 {
	return e.writes.Load()
}

// HandleChange maps a change to affected nodes and drains the queue.
func (e *Engine) HandleChange(ctx context.Context, c graphstore.Change) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Change received.", "kind", c.Kind.String(), "nodes", c.Nodes)

	switch c.Kind {
	case graphstore.NodeAdded:
		e.enqueue(c.Nodes...)
	case graphstore.NodeRemoved:
		removed := c.Nodes[0]
		if err := e.states.Delete(ctx, removed); err != nil {
			logger.Warn("Failed to drop node state.", "node", removed, "error", err)
		}
		e.enqueue(c.Targets(removed)...)
	case graphstore.NodeUpdated:
		id := c.Nodes[0]
		if c.Fields.Has(graphstore.FieldExpression) {
			e.enqueue(id)
		}
		if c.Fields.Has(graphstore.FieldValue) {
			e.enqueue(e.dependents(ctx, id)...)
		}
	case graphstore.EdgeAdded, graphstore.EdgeRemoved, graphstore.EdgeReconnected:
		e.enqueue(c.Targets()...)
	case graphstore.GraphReplaced:
		if err := e.states.Reset(ctx); err != nil {
			logger.Warn("Failed to reset node states.", "error", err)
		}
		e.enqueue(e.derived(ctx)...)
	}

	if c.Kind.Structural() {
		e.enqueue(e.unresolved(ctx)...)
	}
	e.drain(ctx)
}

// Recompute queues the given nodes and drains the queue.
func (e *Engine) Recompute(ctx context.Context, ids ...string) {
	e.enqueue(ids...)
	e.drain(ctx)
}

// RecomputeAll recomputes every Function and Sink until no value changes.
func (e *Engine) RecomputeAll(ctx context.Context) {
	e.Recompute(ctx, e.derived(ctx)...)
}

func (e *Engine) enqueue(ids ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		if _, ok := e.queued[id]; ok {
			continue
		}
		e.queued[id] = struct{}{}
		e.queue = append(e.queue, id)
	}
}

// drain processes the queue unless a drain is already running further up
// the stack, in which case that loop picks up the new entries.
func (e *Engine) drain(ctx context.Context) {
	e.mu.Lock()
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.draining = false
		e.mu.Unlock()
	}()

	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		id := e.queue[0]
		e.queue = e.queue[1:]
		delete(e.queued, id)
		e.mu.Unlock()

		e.recompute(ctx, id)
	}
}

func (e *Engine) recompute(ctx context.Context, id string) {
	n, ok := e.store.Node(ctx, id)
	if !ok {
		return
	}
	switch n.Kind {
	case node.Function:
		e.recomputeFunction(ctx, n)
	case node.Sink:
		e.recomputeSink(ctx, n)
	}
}

func (e *Engine) recomputeFunction(ctx context.Context, n node.Node) {
	logger := ctxlog.FromContext(ctx).With("node", n.ID)

	// Cycle members keep their last value; only the status marks it stale.
	if members := e.cycleMembers(ctx, n.ID); len(members) > 0 {
		for _, m := range members {
			e.setState(ctx, m, node.StatusUnresolved,
				fmt.Errorf("node '%s' depends on itself: %w", m, graphstore.ErrCycleDetected))
		}
		logger.Debug("Cycle detected, evaluation skipped.", "members", members)
		return
	}

	incomers, err := e.store.Incomers(ctx, n.ID)
	if err != nil {
		logger.Warn("Failed to read incomers.", "error", err)
		return
	}
	res := reference.Resolve(n.Data.Expression, incomers)

	bindings := make(map[string]*float64, len(res.Valid))
	for _, ref := range res.Valid {
		v, err := e.store.Value(ctx, ref)
		if err != nil {
			logger.Warn("Failed to read input value.", "input", ref, "error", err)
		}
		bindings[ref] = v
	}

	result, err := e.eval.Evaluate(res.Expression, bindings)
	if err != nil {
		e.setState(ctx, n.ID, node.StatusFailed, err)
		logger.Debug("Evaluation failed, keeping previous value.", "error", err, "invalid", res.Invalid)
		return
	}

	e.setState(ctx, n.ID, node.StatusResolved, res.Err())
	if node.SameValue(n.Data.Value, &result) {
		logger.Debug("Value unchanged.", "value", result)
		return
	}
	e.write(ctx, n.ID, &result)
}

func (e *Engine) recomputeSink(ctx context.Context, n node.Node) {
	logger := ctxlog.FromContext(ctx).With("node", n.ID)

	incomers, err := e.store.Incomers(ctx, n.ID)
	if err != nil {
		logger.Warn("Failed to read incomers.", "error", err)
		return
	}

	var shown *float64
	for _, in := range incomers {
		v, err := e.store.Value(ctx, in)
		if err == nil && v != nil {
			shown = v
			break
		}
	}

	e.setState(ctx, n.ID, node.StatusResolved, nil)
	if node.SameValue(n.Data.Value, shown) {
		return
	}
	e.write(ctx, n.ID, shown)
}

func (e *Engine) write(ctx context.Context, id string, v *float64) {
	patch := graphstore.Patch{Value: v, ClearValue: v == nil}
	e.writes.Add(1)
	ctxlog.FromContext(ctx).Debug("Writing recomputed value.", "node", id, "value", node.FormatValue(v))
	if err := e.store.UpdateNodeData(ctx, id, patch); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to write recomputed value.", "node", id, "error", err)
	}
}

func (e *Engine) setState(ctx context.Context, id string, status node.Status, nodeErr error) {
	if err := e.states.SetStatus(ctx, id, status); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to record status.", "node", id, "error", err)
	}
	if err := e.states.SetError(ctx, id, nodeErr); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to record error.", "node", id, "error", err)
	}
}
