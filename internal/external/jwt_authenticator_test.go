package external

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuthenticator_VerifyRoundTrip(t *testing.T) {
	auth := NewJWTAuthenticator("test-secret")

	token, err := auth.Issue("user-123", time.Minute)
	require.NoError(t, err)

	userID, err := auth.Verify(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestJWTAuthenticator_VerifyWithoutBearerPrefix(t *testing.T) {
	auth := NewJWTAuthenticator("test-secret")

	token, err := auth.Issue("user-456", time.Minute)
	require.NoError(t, err)

	userID, err := auth.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-456", userID)
}

func TestJWTAuthenticator_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTAuthenticator("secret-a")
	verifier := NewJWTAuthenticator("secret-b")

	token, err := issuer.Issue("user-789", time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestJWTAuthenticator_RejectsExpiredToken(t *testing.T) {
	auth := NewJWTAuthenticator("test-secret")

	token, err := auth.Issue("user-expired", -time.Minute)
	require.NoError(t, err)

	_, err = auth.Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestJWTAuthenticator_RejectsEmptyToken(t *testing.T) {
	auth := NewJWTAuthenticator("test-secret")

	_, err := auth.Verify(context.Background(), "")
	assert.Error(t, err)
}
