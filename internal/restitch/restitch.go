// Package restitch repairs the edge set around deleted nodes so that every
// former incomer stays connected to every former outgoer.
//
// The functions here are pure: they take an edge slice and return a new one,
// leaving the input untouched.
package restitch

import (
	"slices"

	"github.com/vk/flowcalc/internal/node"
)

// Result is the outcome of restitching around one deleted node.
type Result struct {
	// Node is the id of the deleted node.
	Node string
	// Edges is the full edge set after the deletion, in order.
	Edges []node.Edge
	// Removed lists the edges that touched the deleted node.
	Removed []node.Edge
	// Added lists the synthesized incomer->outgoer edges.
	Added []node.Edge
}

// EdgeID returns the deterministic id of a synthesized edge.
func EdgeID(source, target string) string {
	return source + "->" + target
}

type pair struct{ source, target string }

// Restitch removes every edge touching id and adds a direct edge for each
// (incomer, outgoer) pair that is not already connected. Self-pairs are
// skipped.
func Restitch(edges []node.Edge, id string) Result {
	res := Result{Node: id}

	var incomers, outgoers []string
	kept := make([]node.Edge, 0, len(edges))
	for _, e := range edges {
		if !e.Touches(id) {
			kept = append(kept, e)
			continue
		}
		res.Removed = append(res.Removed, e)
		if e.Target == id && e.Source != id && !slices.Contains(incomers, e.Source) {
			incomers = append(incomers, e.Source)
		}
		if e.Source == id && e.Target != id && !slices.Contains(outgoers, e.Target) {
			outgoers = append(outgoers, e.Target)
		}
	}

	connected := make(map[pair]struct{}, len(kept))
	for _, e := range kept {
		connected[pair{e.Source, e.Target}] = struct{}{}
	}

	for _, in := range incomers {
		for _, out := range outgoers {
			if in == out {
				continue
			}
			p := pair{in, out}
			if _, ok := connected[p]; ok {
				continue
			}
			connected[p] = struct{}{}
			e := node.Edge{ID: EdgeID(in, out), Source: in, Target: out}
			kept = append(kept, e)
			res.Added = append(res.Added, e)
		}
	}

	res.Edges = kept
	return res
}

// Batch restitches around several deletions. Ids are sorted and processed
// over one rolling edge set, so edges synthesized for one deletion are
// candidates for the next. The final edge set is the Edges of the last
// result, or the input when ids is empty.
func Batch(edges []node.Edge, ids []string) []Result {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	results := make([]Result, 0, len(sorted))
	current := edges
	for _, id := range sorted {
		res := Restitch(current, id)
		results = append(results, res)
		current = res.Edges
	}
	return results
}
