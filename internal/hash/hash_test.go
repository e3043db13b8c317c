package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	h, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", h)

	require.True(t, CheckPassword(h, "secret1"))
	require.False(t, CheckPassword(h, "wrong"))

	// Hashing twice never yields the same string; bcrypt salts per call.
	h2, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NotEqual(t, h, h2)
}
