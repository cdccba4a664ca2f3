package sheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/graph"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/nodeid"
)

// Ext is the file extension of sheet files.
const Ext = ".hcl"

// Load parses every sheet file under paths and merges them into one
// snapshot. Missing paths are skipped. The snapshot is not validated beyond
// the sheet syntax; graph.Manager.Restore checks the graph itself.
func Load(ctx context.Context, paths ...string) (graph.Snapshot, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sheet loader started.", "path_count", len(paths))

	files, err := findAllSheetFiles(paths)
	if err != nil {
		return graph.Snapshot{}, err
	}
	logger.Debug("Discovered sheet files.", "count", len(files))

	parser := hclparse.NewParser()
	var snap graph.Snapshot
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return graph.Snapshot{}, fmt.Errorf("failed to parse sheet %s: %w", file, diags)
		}
		if err := decode(f.Body, &snap); err != nil {
			return graph.Snapshot{}, fmt.Errorf("failed to decode sheet %s: %w", file, err)
		}
	}

	logger.Debug("Sheet loading complete.", "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return snap, nil
}

// Parse decodes a single sheet held in memory. filename is used in
// diagnostics only.
func Parse(ctx context.Context, src []byte, filename string) (graph.Snapshot, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return graph.Snapshot{}, fmt.Errorf("failed to parse sheet %s: %w", filename, diags)
	}
	var snap graph.Snapshot
	if err := decode(f.Body, &snap); err != nil {
		return graph.Snapshot{}, fmt.Errorf("failed to decode sheet %s: %w", filename, err)
	}
	ctxlog.FromContext(ctx).Debug("Sheet parsed.", "file", filename, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	return snap, nil
}

func decode(body hcl.Body, snap *graph.Snapshot) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return diags
	}

	var diags hcl.Diagnostics
	for _, b := range root.Nodes {
		n, d := translateNode(b)
		diags = append(diags, d...)
		if !d.HasErrors() {
			snap.Nodes = append(snap.Nodes, n)
		}
	}
	for _, b := range root.Edges {
		snap.Edges = append(snap.Edges, translateEdge(b))
	}
	if diags.HasErrors() {
		return diags
	}
	return nil
}

func translateNode(b *nodeBlock) (node.Node, hcl.Diagnostics) {
	kind, err := node.ParseKind(b.Kind)
	if err != nil {
		return node.Node{}, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown node kind",
			Detail:   fmt.Sprintf("Node %q has kind %q; expected \"number\", \"function\" or \"result\".", b.ID, b.Kind),
			Subject:  blockRange(b.Body),
		}}
	}

	seq := 0
	if addr, err := nodeid.Parse(b.ID); err == nil {
		seq = addr.Seq
	}
	n := node.Node{ID: b.ID, Kind: kind, Data: node.DefaultData(kind, seq)}
	if seq == 0 {
		n.Data.Label = b.ID
	}

	var diags hcl.Diagnostics
	if b.Label != nil {
		n.Data.Label = *b.Label
	}
	if b.Value != nil {
		n.Data.Value = node.Float(*b.Value)
	}
	if b.Expression != nil {
		if kind != node.Function {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unexpected expression",
				Detail:   fmt.Sprintf("Node %q is a %s; only function nodes hold an expression.", b.ID, kind),
				Subject:  blockRange(b.Body),
			})
		}
		n.Data.Expression = *b.Expression
	}
	switch len(b.Position) {
	case 0:
	case 2:
		n.Position = node.Position{X: b.Position[0], Y: b.Position[1]}
	default:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid position",
			Detail:   fmt.Sprintf("Node %q: position must be [x, y], got %d elements.", b.ID, len(b.Position)),
			Subject:  blockRange(b.Body),
		})
	}
	return n, diags
}

func translateEdge(b *edgeBlock) node.Edge {
	e := node.Edge{Source: b.Source, Target: b.Target, Animated: true}
	if b.ID != nil {
		e.ID = *b.ID
	}
	if b.Handle != nil {
		e.SourceHandle = *b.Handle
	}
	if b.Animated != nil {
		e.Animated = *b.Animated
	}
	return e
}

// findAllSheetFiles walks all given paths and returns a flat list of the
// sheet files found, in walk order and without duplicates.
func findAllSheetFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == Ext {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
