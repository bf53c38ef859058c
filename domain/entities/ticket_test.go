package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 200 {
		code, err := GenerateTicketCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, strings.ContainsRune(TicketCodeAlphabet, r), "unexpected rune %q", r)
		}
		assert.Equal(t, code, NormalizeTicketCode(code))
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)

	_, err := GenerateTicketCode(0)
	assert.Error(t, err)
}

func TestNormalizeTicketCode(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"abc-234":   "ABC234",
		" ab c2 34": "ABC234",
		"ABC234":    "ABC234",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeTicketCode(in), in)
	}
}
