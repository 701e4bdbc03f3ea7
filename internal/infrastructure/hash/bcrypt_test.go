package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndMatches(t *testing.T) {
	h := NewBcrypt()

	digest, err := h.Hash("123456")
	require.NoError(t, err)
	assert.NotEqual(t, "123456", digest)

	assert.True(t, h.Matches("123456", digest))
	assert.False(t, h.Matches("654321", digest))
	assert.False(t, h.Matches("123456", "not-a-bcrypt-digest"))
}

func TestHash_Salted(t *testing.T) {
	h := NewBcrypt()

	d1, err := h.Hash("123456")
	require.NoError(t, err)
	d2, err := h.Hash("123456")
	require.NoError(t, err)

	// Same plaintext, different salts, different digests.
	assert.NotEqual(t, d1, d2)
	assert.True(t, h.Matches("123456", d1))
	assert.True(t, h.Matches("123456", d2))
}
