package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_RoundTrip(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	digest, err := h.Hash("123456")
	require.NoError(t, err)
	assert.NotEqual(t, "123456", digest)

	assert.True(t, h.Verify("123456", digest))
	assert.False(t, h.Verify("654321", digest))
}

func TestBcrypt_DistinctDigestsPerHash(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	d1, err := h.Hash("000000")
	require.NoError(t, err)
	d2, err := h.Hash("000000")
	require.NoError(t, err)

	// Salted: same input, different digests, both verify.
	assert.NotEqual(t, d1, d2)
	assert.True(t, h.Verify("000000", d1))
	assert.True(t, h.Verify("000000", d2))
}

func TestBcrypt_InvalidCostFallsBack(t *testing.T) {
	h := NewBcrypt(-1)
	digest, err := h.Hash("123456")
	require.NoError(t, err)
	assert.True(t, h.Verify("123456", digest))
}

func TestBcrypt_VerifyGarbageDigest(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	assert.False(t, h.Verify("123456", "not-a-bcrypt-digest"))
}
