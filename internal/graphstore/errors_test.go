package graphstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "bare sentinel", err: ErrNotFound, want: CodeNotFound},
		{name: "wrapped", err: fmt.Errorf("edge 'x': %w", ErrCapacityExceeded), want: CodeCapacityExceeded},
		{name: "joined", err: errors.Join(errors.New("other"), ErrDuplicateEdge), want: CodeDuplicateEdge},
		{name: "unknown", err: errors.New("boom"), want: CodeInternal},
		{name: "evaluation", err: fmt.Errorf("x: %w", ErrEvaluationFailure), want: CodeEvaluationFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Code(tc.err))
		})
	}
}
