package inmemorygraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/graphstore"
)

// Validate checks the store's invariants: unique node ids and no dangling
// edges. Violations indicate a bug and are logged at error level.
func (s *Store) Validate(ctx context.Context) error {
	s.mu.RLock()
	var errs []error
	seen := make(map[string]struct{}, len(s.order))
	for _, id := range s.order {
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("node '%s': %w", id, graphstore.ErrDuplicateNodeID))
		}
		seen[id] = struct{}{}
	}
	if len(seen) != len(s.nodes) {
		errs = append(errs, fmt.Errorf("%d ordered ids for %d nodes: %w", len(seen), len(s.nodes), graphstore.ErrDuplicateNodeID))
	}
	for _, e := range s.edges {
		_, srcOK := s.nodes[e.Source]
		_, tgtOK := s.nodes[e.Target]
		if !srcOK || !tgtOK {
			errs = append(errs, fmt.Errorf("edge %s: %w", e, graphstore.ErrDanglingEdge))
		}
	}
	s.mu.RUnlock()

	err := errors.Join(errs...)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Graph invariant violated.", "error", err)
	}
	return err
}
