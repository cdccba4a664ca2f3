package evaluator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Evaluator evaluates normalized expressions. It holds no per-call state and
// is safe for concurrent use.
type Evaluator struct {
	functions map[string]function.Function
	constants map[string]cty.Value
}

// New creates an evaluator with the default function table and constants.
func New() *Evaluator {
	return &Evaluator{
		functions: map[string]function.Function{
			"abs":    stdlib.AbsoluteFunc,
			"ceil":   stdlib.CeilFunc,
			"floor":  stdlib.FloorFunc,
			"int":    stdlib.IntFunc,
			"log":    stdlib.LogFunc,
			"max":    stdlib.MaxFunc,
			"min":    stdlib.MinFunc,
			"pow":    stdlib.PowFunc,
			"signum": stdlib.SignumFunc,
			"sqrt":   sqrtFunc,
		},
		constants: map[string]cty.Value{
			"pi": cty.NumberFloatVal(math.Pi),
			"e":  cty.NumberFloatVal(math.E),
		},
	}
}

// Functions returns the names of the callable functions, sorted.
func (e *Evaluator) Functions() []string {
	names := make([]string, 0, len(e.functions))
	for name := range e.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate computes expr with the given bindings. A nil binding is an input
// whose node has no value yet; referencing it fails with ReasonUndefinedInput.
func (e *Evaluator) Evaluate(expr string, bindings map[string]*float64) (result float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = 0
			err = failure(ReasonPanic, expr, fmt.Errorf("%v", r))
		}
	}()

	if strings.TrimSpace(expr) == "" {
		return 0, failure(ReasonEmpty, expr, nil)
	}

	src, rerr := rewritePow(splitDashes(expr))
	if rerr != nil {
		return 0, failure(ReasonParse, expr, rerr)
	}

	parsed, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return 0, failure(ReasonParse, expr, diags)
	}

	vars := make(map[string]cty.Value, len(e.constants)+len(bindings))
	for name, val := range e.constants {
		vars[name] = val
	}
	for _, traversal := range parsed.Variables() {
		name := traversal.RootName()
		bound, ok := bindings[name]
		if !ok {
			if _, constant := e.constants[name]; constant {
				continue
			}
			return 0, &EvaluationError{Reason: ReasonUnknownVariable, Expression: expr, Variable: name}
		}
		if bound == nil {
			return 0, &EvaluationError{Reason: ReasonUndefinedInput, Expression: expr, Variable: name}
		}
		vars[name] = cty.NumberFloatVal(*bound)
	}

	val, diags := parsed.Value(&hcl.EvalContext{Variables: vars, Functions: e.functions})
	if diags.HasErrors() {
		return 0, failure(ReasonRuntime, expr, diags)
	}
	if val.IsNull() || !val.IsKnown() || !val.Type().Equals(cty.Number) {
		return 0, failure(ReasonNotNumber, expr, fmt.Errorf("result is %s", val.GoString()))
	}
	if val.AsBigFloat().IsInf() {
		return 0, failure(ReasonNonFinite, expr, fmt.Errorf("result is infinite"))
	}

	var out float64
	if cerr := gocty.FromCtyValue(val, &out); cerr != nil {
		return 0, failure(ReasonNotNumber, expr, cerr)
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, failure(ReasonNonFinite, expr, fmt.Errorf("result %v is not finite", out))
	}
	return out, nil
}

var sqrtFunc = function.New(&function.Spec{
	Description: `Returns the square root of a non-negative number.`,
	Params: []function.Parameter{
		{
			Name: "num",
			Type: cty.Number,
		},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		var num float64
		if err := gocty.FromCtyValue(args[0], &num); err != nil {
			return cty.UnknownVal(cty.Number), err
		}
		if num < 0 {
			return cty.UnknownVal(cty.Number), fmt.Errorf("square root of negative number %v", num)
		}
		return cty.NumberFloatVal(math.Sqrt(num)), nil
	},
})
