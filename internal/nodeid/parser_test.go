// internal/nodeid/parser_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name         string
		rawID        string
		expectErr    bool
		expectedAddr *Address
	}{
		{
			name:         "generated id",
			rawID:        "number_1",
			expectedAddr: &Address{Prefix: "number", Seq: 1},
		},
		{
			name:         "multi-digit sequence",
			rawID:        "function_12",
			expectedAddr: &Address{Prefix: "function", Seq: 12},
		},
		{
			name:         "prefix with underscores",
			rawID:        "my_input_3",
			expectedAddr: &Address{Prefix: "my_input", Seq: 3},
		},
		{
			name:      "error - empty string",
			rawID:     "",
			expectErr: true,
		},
		{
			name:      "error - no sequence",
			rawID:     "total",
			expectErr: true,
		},
		{
			name:      "error - zero sequence",
			rawID:     "number_0",
			expectErr: true,
		},
		{
			name:      "error - forbidden characters",
			rawID:     "number-1",
			expectErr: true,
		},
		{
			name:      "error - dotted path",
			rawID:     "step.a_1",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := Parse(tc.rawID)
			if tc.expectErr {
				require.Error(t, err)
				assert.Nil(t, addr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedAddr, addr)
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("number_1"))
	assert.True(t, Valid("total"))
	assert.True(t, Valid("_x9"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("a b"))
	assert.False(t, Valid("@a"))
	assert.Error(t, Validate("a+b"))
	assert.NoError(t, Validate("a_b"))
}
