package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortlyapp/shortly/internal/auth"
)

func TestHashPassword_Verifies(t *testing.T) {
	hash, err := auth.HashPassword("abcdef")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, auth.CheckPassword(hash, "abcdef"))
	assert.False(t, auth.CheckPassword(hash, "abcdeg"))
	assert.False(t, auth.CheckPassword(hash, ""))
}

func TestHashPassword_CostFactor(t *testing.T) {
	hash, err := auth.HashPassword("abcdef")
	require.NoError(t, err)

	// bcrypt encodes the cost in the hash prefix: $2a$10$...
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"), "unexpected hash prefix: %s", hash)
}

func TestCheckPassword_EmptyHash(t *testing.T) {
	// OAuth-only accounts have no hash; nothing verifies against them.
	assert.False(t, auth.CheckPassword("", "abcdef"))
}
