// Package diagram renders a calculator graph as a Graphviz node-link
// diagram.
//
// [ToDOT] produces DOT text with one box per node, labelled with the node's
// caption and current value, and one arrow per edge. Nodes whose last
// evaluation failed are filled red; nodes caught in a dependency cycle get
// a dashed outline. [RenderSVG] lays the DOT text out in-process using
// [github.com/goccy/go-graphviz].
package diagram
