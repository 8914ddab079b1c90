package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	a, err := GenerateCode()
	require.NoError(t, err)
	b, err := GenerateCode()
	require.NoError(t, err)

	assert.Len(t, a, codeLength)
	assert.NotEqual(t, a, b)
}

func TestHashAndVerifyCode(t *testing.T) {
	hash, err := HashCode("s3cret-code")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-code", hash)
	assert.NoError(t, VerifyCode(hash, "s3cret-code"))
	assert.Error(t, VerifyCode(hash, "other-code"))
}

func TestStateHash(t *testing.T) {
	assert.Equal(t, StateHash("id", "alice"), StateHash("id", "alice"))
	assert.NotEqual(t, StateHash("ab", "c"), StateHash("a", "bc"))
	assert.Len(t, StateHash("x"), 64)
}
