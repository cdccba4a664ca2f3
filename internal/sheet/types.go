package sheet

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// fileRoot captures every top-level block of a sheet file. Anything else in
// the file is a decode error.
type fileRoot struct {
	Nodes []*nodeBlock `hcl:"node,block"`
	Edges []*edgeBlock `hcl:"edge,block"`
}

type nodeBlock struct {
	Kind       string    `hcl:"kind,label"`
	ID         string    `hcl:"id,label"`
	Label      *string   `hcl:"label,optional"`
	Value      *float64  `hcl:"value,optional"`
	Expression *string   `hcl:"expression,optional"`
	Position   []float64 `hcl:"position,optional"`
	Body       hcl.Body  `hcl:",body"`
}

type edgeBlock struct {
	Source   string  `hcl:"source,label"`
	Target   string  `hcl:"target,label"`
	ID       *string `hcl:"id,optional"`
	Handle   *string `hcl:"handle,optional"`
	Animated *bool   `hcl:"animated,optional"`
	Body     hcl.Body `hcl:",body"`
}

// blockRange returns the source range of a decoded block body.
func blockRange(body hcl.Body) *hcl.Range {
	if sb, ok := body.(*hclsyntax.Body); ok {
		return sb.SrcRange.Ptr()
	}
	r := body.MissingItemRange()
	return &r
}
