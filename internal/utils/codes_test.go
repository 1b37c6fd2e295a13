package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfirmationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := NewConfirmationCode()
		require.NoError(t, err)
		assert.Len(t, code, ConfirmationCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(confirmationAlphabet, r), "unexpected character %q", r)
		}
		seen[code] = true
	}
	// 100 draws from a 31^8 space should not collide.
	assert.Len(t, seen, 100)
}
