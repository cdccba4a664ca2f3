package graphstore

import "errors"

var (
	// ErrNotFound is returned for operations on an unknown node or edge id.
	ErrNotFound = errors.New("not found")
	// ErrCapacityExceeded is returned when a connection would exceed a Sink's single input.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrInvalidConnection is returned for self-loops, edges into a ValueSource
	// and edges out of a Sink.
	ErrInvalidConnection = errors.New("invalid connection")
	// ErrDuplicateEdge is returned when an identical connection already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")
	// ErrInvalidValue is returned for non-finite user values.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidID is returned for node ids outside the reference-token alphabet.
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidReference marks an `@id` token with no backing edge. It is
	// reported, never returned from a mutation.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrEvaluationFailure marks an expression that could not be evaluated.
	ErrEvaluationFailure = errors.New("evaluation failure")
	// ErrCycleDetected marks a Function node whose dependencies reach itself.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrDuplicateNodeID is an invariant violation: two nodes share an id.
	ErrDuplicateNodeID = errors.New("duplicate node id")
	// ErrDanglingEdge is an invariant violation: an edge names a missing node.
	ErrDanglingEdge = errors.New("dangling edge")
)

// Reason codes reported to clients.
const (
	CodeNotFound          = "NotFound"
	CodeCapacityExceeded  = "CapacityExceeded"
	CodeInvalidConnection = "InvalidConnection"
	CodeDuplicateEdge     = "DuplicateEdge"
	CodeInvalidValue      = "InvalidValue"
	CodeInvalidID         = "InvalidId"
	CodeInvalidReference  = "InvalidReference"
	CodeEvaluationFailure = "EvaluationFailure"
	CodeCycleDetected     = "CycleDetected"
	CodeDuplicateNodeID   = "DuplicateNodeId"
	CodeDanglingEdge      = "DanglingEdge"
	CodeInternal          = "Internal"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrNotFound, CodeNotFound},
	{ErrCapacityExceeded, CodeCapacityExceeded},
	{ErrInvalidConnection, CodeInvalidConnection},
	{ErrDuplicateEdge, CodeDuplicateEdge},
	{ErrInvalidValue, CodeInvalidValue},
	{ErrInvalidID, CodeInvalidID},
	{ErrInvalidReference, CodeInvalidReference},
	{ErrEvaluationFailure, CodeEvaluationFailure},
	{ErrCycleDetected, CodeCycleDetected},
	{ErrDuplicateNodeID, CodeDuplicateNodeID},
	{ErrDanglingEdge, CodeDanglingEdge},
}

// Code returns the stable reason code for err, or the empty string for nil.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
