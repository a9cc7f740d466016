package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type SessionClaims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

// SignSessionToken issues an HS256 session token. The jti identifies
// the revocable session row; sub is the user id.
func SignSessionToken(userID, role, name, jti string, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
		Name: name,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}

// VerifySessionToken verifies signature and time bounds and returns the
// claims. Session liveness (revocation) is checked separately against
// the store.
func VerifySessionToken(tokenString string, secret []byte, now time.Time) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("missing signing secret")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &SessionClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(now) {
		return nil, fmt.Errorf("token expired")
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("missing subject or session id")
	}

	return claims, nil
}
