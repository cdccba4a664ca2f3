// Package sheet loads and writes calculator graphs in HCL.
//
// A sheet is a set of `node` and `edge` blocks:
//
//	node "number" "number_1" {
//	  label    = "Number 1"
//	  value    = 21
//	  position = [50, 100]
//	}
//
//	node "function" "function_1" {
//	  expression = "@number_1 + @number_2"
//	}
//
//	edge "number_1" "function_1" {}
//
// Node labels are the kind (`number`, `function`, `result`) and the id.
// Omitted attributes take the kind's defaults. Edge labels are the source
// and target ids; `id`, `handle` and `animated` are optional.
//
// A sheet may be split across several files; Load accepts files and
// directories and merges every `.hcl` file it finds.
package sheet
