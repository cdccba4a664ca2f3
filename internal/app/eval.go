package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vk/flowcalc/internal/diagram"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/record"
	"github.com/vk/flowcalc/internal/sheet"
)

// Eval output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatHCL  = "hcl"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// Formats lists the accepted Eval formats.
var Formats = []string{FormatText, FormatJSON, FormatHCL, FormatDOT, FormatSVG}

// Eval writes every node of the loaded graph with its current value.
func (a *App) Eval(ctx context.Context, format string) error {
	ctx = a.Context(ctx)
	snap := a.graph.Snapshot(ctx)
	a.logger.Debug("Rendering graph.", "format", format, "nodes", len(snap.Nodes), "edges", len(snap.Edges))

	statuses, err := a.statuses(ctx, snap.Nodes)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case FormatText, "":
		rendered := renderTable(snap.Nodes, statuses)
		_, err = fmt.Fprintln(a.outW, rendered)
		return err
	case FormatJSON:
		b, err := record.Encode(record.FromGraph(snap.Nodes, snap.Edges))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.outW, string(b))
		return err
	case FormatHCL:
		_, err := a.outW.Write(sheet.Encode(snap))
		return err
	case FormatDOT:
		_, err := io.WriteString(a.outW, diagram.ToDOT(snap, statuses))
		return err
	case FormatSVG:
		svg, err := diagram.RenderSVG(ctx, diagram.ToDOT(snap, statuses))
		if err != nil {
			return err
		}
		_, err = a.outW.Write(svg)
		return err
	default:
		return fmt.Errorf("unknown output format %q: must be one of %v", format, Formats)
	}
}

// statuses reads the evaluation status of every derived node.
func (a *App) statuses(ctx context.Context, nodes []node.Node) (map[string]node.Status, error) {
	out := make(map[string]node.Status, len(nodes))
	for _, n := range nodes {
		if n.Kind == node.ValueSource {
			continue
		}
		st, err := a.graph.Status(ctx, n.ID)
		if err != nil {
			return nil, err
		}
		out[n.ID] = st.Status
	}
	return out, nil
}

func renderTable(nodes []node.Node, statuses map[string]node.Status) string {
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		status := "-"
		if n.Kind != node.ValueSource {
			status = statuses[n.ID].String()
		}
		value := node.FormatValue(n.Data.Value)
		if value == "" {
			value = "-"
		}
		rows = append(rows, []string{n.ID, n.Kind.String(), n.Data.Label, value, status})
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "KIND", "LABEL", "VALUE", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}
