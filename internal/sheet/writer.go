package sheet

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowcalc/internal/graph"
	"github.com/vk/flowcalc/internal/node"
)

// Encode renders a snapshot as a sheet. Values of function and result
// nodes are derived, so only number values are written.
func Encode(snap graph.Snapshot) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	for i, n := range snap.Nodes {
		if i > 0 {
			body.AppendNewline()
		}
		nb := body.AppendNewBlock("node", []string{n.Kind.String(), n.ID}).Body()
		nb.SetAttributeValue("label", cty.StringVal(n.Data.Label))
		if n.Kind == node.ValueSource && n.Data.Value != nil {
			nb.SetAttributeValue("value", cty.NumberFloatVal(*n.Data.Value))
		}
		if n.Kind == node.Function {
			nb.SetAttributeValue("expression", cty.StringVal(n.Data.Expression))
		}
		nb.SetAttributeValue("position", cty.TupleVal([]cty.Value{
			cty.NumberFloatVal(n.Position.X),
			cty.NumberFloatVal(n.Position.Y),
		}))
	}

	for _, e := range snap.Edges {
		body.AppendNewline()
		eb := body.AppendNewBlock("edge", []string{e.Source, e.Target}).Body()
		eb.SetAttributeValue("id", cty.StringVal(e.ID))
		if e.SourceHandle != "" {
			eb.SetAttributeValue("handle", cty.StringVal(e.SourceHandle))
		}
		if !e.Animated {
			eb.SetAttributeValue("animated", cty.False)
		}
	}
	return f.Bytes()
}
