package otp

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_SixDigits(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 200; i++ {
		code, err := New()
		require.NoError(t, err)
		require.Regexp(t, pattern, code, "leading zeros must be preserved")
	}
}

func TestNew_NotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := New()
		require.NoError(t, err)
		seen[code] = true
	}
	require.Greater(t, len(seen), 1)
}
