package diagram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/vk/flowcalc/internal/graph"
	"github.com/vk/flowcalc/internal/node"
)

// ToDOT converts a snapshot to Graphviz DOT. statuses maps node ids to their
// evaluation status; missing entries are drawn as pending.
func ToDOT(snap graph.Snapshot, statuses map[string]node.Status) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, n := range snap.Nodes {
		attrs := fmtAttrs(n, statuses[n.ID])
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range snap.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n node.Node) string {
	value := node.FormatValue(n.Data.Value)
	if value == "" {
		value = "-"
	}
	label := n.Data.Label + "\n" + value
	if n.Kind == node.Function && n.Data.Expression != "" {
		label += "\n" + n.Data.Expression
	}
	return label
}

func fmtAttrs(n node.Node, status node.Status) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n))}
	switch {
	case n.Kind == node.ValueSource:
		attrs = append(attrs, "fillcolor=lightblue")
	case status == node.StatusFailed:
		attrs = append(attrs, "fillcolor=salmon")
	case status == node.StatusUnresolved:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case n.Kind == node.Sink:
		attrs = append(attrs, "fillcolor=palegreen")
	}
	return attrs
}

// RenderSVG lays out a DOT graph and renders it to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
