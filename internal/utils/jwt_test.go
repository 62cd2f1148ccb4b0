package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2!secret", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2!secret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}

func TestHashPasswordCostFallback(t *testing.T) {
	// Out-of-range costs must not fail, they fall back to the default.
	for _, cost := range []int{0, -1, 99} {
		hash, err := HashPassword("hunter2!secret", cost)
		require.NoError(t, err)
		assert.True(t, VerifyPassword(hash, "hunter2!secret"))
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "hunter2!secret"))
}

func TestHashRefreshRawDeterministic(t *testing.T) {
	a := HashRefreshRaw("token-a")
	assert.Equal(t, a, HashRefreshRaw("token-a"))
	assert.NotEqual(t, a, HashRefreshRaw("token-b"))
	assert.Len(t, a, 64) // sha256 hex
}

func TestNewRefreshTokenUniqueAndFuture(t *testing.T) {
	r1, err := NewRefreshToken(7)
	require.NoError(t, err)
	r2, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Raw, r2.Raw)
	assert.Len(t, r1.Raw, 96)
	assert.True(t, r1.Exp.After(time.Now().UTC().Add(6*24*time.Hour)))
}

func TestNewAccessTokenExpiry(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 1, "CUSTOMER", 15)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)
}
