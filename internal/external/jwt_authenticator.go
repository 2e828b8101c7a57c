package external

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the minimal claim set doctalk issues: the registered
// subject carries the owning userId, nothing else is trusted.
type JWTClaims struct {
	jwt.RegisteredClaims
}

// JWTAuthenticator is the default Authenticator: HS256 bearer tokens
// signed with a shared secret. Issuance is out of scope (spec §1's "no
// auth issuance" non-goal) — this only verifies.
type JWTAuthenticator struct {
	secret []byte
}

// NewJWTAuthenticator builds an Authenticator over a shared signing secret.
func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	if token == "" {
		return "", errors.New("empty token")
	}

	parsed, err := jwt.ParseWithClaims(token, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Issue is a test/dev convenience, not part of the Authenticator contract:
// the service that owns signup/login (out of scope here) is expected to
// mint tokens with the same secret and a userId subject.
func (a *JWTAuthenticator) Issue(userID string, ttl time.Duration) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
