package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/graph"
	"github.com/vk/flowcalc/internal/record"
	"github.com/vk/flowcalc/internal/sheet"
)

// loadSheet reads a JSON interchange document when path ends in .json and
// HCL sheets (a file or a directory of them) otherwise.
func loadSheet(ctx context.Context, path string) (graph.Snapshot, error) {
	logger := ctxlog.FromContext(ctx)

	if strings.EqualFold(filepath.Ext(path), ".json") {
		logger.Debug("Loading JSON graph.", "path", path)
		b, err := os.ReadFile(path)
		if err != nil {
			return graph.Snapshot{}, err
		}
		g, err := record.Decode(b)
		if err != nil {
			return graph.Snapshot{}, err
		}
		nodes, edges := g.ToGraph()
		return graph.Snapshot{Nodes: nodes, Edges: edges}, nil
	}

	logger.Debug("Loading HCL sheet.", "path", path)
	return sheet.Load(ctx, path)
}
