package evaluator

import (
	"fmt"

	"github.com/vk/flowcalc/internal/graphstore"
)

// Reason classifies an evaluation failure.
type Reason string

const (
	ReasonEmpty           Reason = "empty"
	ReasonParse           Reason = "parse"
	ReasonUnknownVariable Reason = "unknown_variable"
	ReasonUndefinedInput  Reason = "undefined_input"
	ReasonRuntime         Reason = "runtime"
	ReasonNotNumber       Reason = "not_number"
	ReasonNonFinite       Reason = "non_finite"
	ReasonPanic           Reason = "panic"
)

// EvaluationError describes why an expression produced no value.
type EvaluationError struct {
	Reason     Reason
	Expression string
	// Variable is set for ReasonUnknownVariable and ReasonUndefinedInput.
	Variable string
	Err      error
}

func (e *EvaluationError) Error() string {
	msg := fmt.Sprintf("evaluation failure (%s) in %q", e.Reason, e.Expression)
	if e.Variable != "" {
		msg += fmt.Sprintf(": variable %q", e.Variable)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *EvaluationError) Unwrap() []error {
	if e.Err == nil {
		return []error{graphstore.ErrEvaluationFailure}
	}
	return []error{graphstore.ErrEvaluationFailure, e.Err}
}

func failure(reason Reason, expr string, err error) *EvaluationError {
	return &EvaluationError{Reason: reason, Expression: expr, Err: err}
}
