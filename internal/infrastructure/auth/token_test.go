package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueRoundTrip(t *testing.T) {
	secret := "test-jwt-secret-key"
	issuer := NewIssuer(secret)

	tokenString, err := issuer.Issue("user-1", "manager", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := NewJWTAuth(secret).Decode(tokenString)
	require.NoError(t, err)

	claims, err := token.AsMap(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims["sub"])
	user, ok := claims["user"].(map[string]interface{})
	require.True(t, ok, "user claim should be an object")
	assert.Equal(t, "user-1", user["id"])
	assert.Equal(t, "manager", user["role"])
}

func TestIssueRejectsBadInput(t *testing.T) {
	issuer := NewIssuer("secret")

	_, err := issuer.Issue("", "admin", time.Hour)
	assert.Error(t, err)

	_, err = issuer.Issue("user-1", "admin", 0)
	assert.Error(t, err)
}

func TestDecodeWithWrongSecretFails(t *testing.T) {
	tokenString, err := NewIssuer("one").Issue("user-1", "admin", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTAuth("two").Decode(tokenString)
	assert.Error(t, err)
}
