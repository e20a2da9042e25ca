package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret-1", "operator")
	require.NoError(t, err)

	claims, err := ValidateToken("secret-1", token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-1", "operator")
	require.NoError(t, err)

	_, err = ValidateToken("secret-2", token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("secret-1", "not.a.token")
	assert.Error(t, err)
}

func TestSecretHashVerification(t *testing.T) {
	hash, err := HashSecret("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, VerifySecret(hash, "correct horse battery staple"))
	assert.False(t, VerifySecret(hash, "wrong"))
	assert.False(t, VerifySecret("not-a-hash", "anything"))
}
