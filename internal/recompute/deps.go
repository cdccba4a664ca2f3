package recompute

import (
	"context"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/reference"
)

// dependents returns the outgoers of id that consume its value: every Sink,
// and every Function whose valid-reference set contains id.
func (e *Engine) dependents(ctx context.Context, id string) []string {
	outgoers, err := e.store.Outgoers(ctx, id)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("No dependents for missing node.", "node", id)
		return nil
	}

	var out []string
	for _, o := range outgoers {
		n, ok := e.store.Node(ctx, o)
		if !ok {
			continue
		}
		switch n.Kind {
		case node.Sink:
			out = append(out, o)
		case node.Function:
			incomers, err := e.store.Incomers(ctx, o)
			if err != nil {
				continue
			}
			if reference.Resolve(n.Data.Expression, incomers).Uses(id) {
				out = append(out, o)
			}
		}
	}
	return out
}

// derived returns every Function and Sink id in insertion order.
func (e *Engine) derived(ctx context.Context) []string {
	var ids []string
	for _, n := range e.store.Nodes(ctx) {
		if n.Kind == node.Function || n.Kind == node.Sink {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// unresolved returns the nodes currently marked as cycle members.
func (e *Engine) unresolved(ctx context.Context) []string {
	var ids []string
	for _, n := range e.store.Nodes(ctx) {
		if n.Kind != node.Function {
			continue
		}
		if status, err := e.states.GetStatus(ctx, n.ID); err == nil && status == node.StatusUnresolved {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// cycleMembers returns the nodes on a dependency cycle through id, id first,
// or nil when id is not on a cycle.
func (e *Engine) cycleMembers(ctx context.Context, id string) []string {
	incoming := make(map[string][]string)
	outgoing := make(map[string][]string)
	for _, edge := range e.store.Edges(ctx) {
		incoming[edge.Target] = append(incoming[edge.Target], edge.Source)
		outgoing[edge.Source] = append(outgoing[edge.Source], edge.Target)
	}

	upstream := reach(id, incoming)
	if _, onCycle := upstream[id]; !onCycle {
		return nil
	}
	downstream := reach(id, outgoing)

	members := []string{id}
	for _, n := range e.store.Nodes(ctx) {
		if n.ID == id {
			continue
		}
		_, up := upstream[n.ID]
		_, down := downstream[n.ID]
		if up && down {
			members = append(members, n.ID)
		}
	}
	return members
}

// reach returns every node reachable from start by following adj at least
// once. start itself is included only if it lies on a cycle.
func reach(start string, adj map[string][]string) map[string]struct{} {
	seen := make(map[string]struct{})
	stack := append([]string(nil), adj[start]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		stack = append(stack, adj[cur]...)
	}
	return seen
}
