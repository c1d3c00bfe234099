// Package auth issues and describes the bearer tokens accepted by the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const signingAlg = "HS256"

// UserClaims is the identity carried in the "user" claim
type UserClaims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Claims is the full token payload
type Claims struct {
	User UserClaims `json:"user"`
	jwt.RegisteredClaims
}

// Issuer signs tokens with a shared HMAC secret
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an issuer for the given secret
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Issue returns a signed token for the user that expires after ttl
func (i *Issuer) Issue(id, role string, ttl time.Duration) (string, error) {
	if id == "" {
		return "", errors.New("user id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	now := i.now()
	claims := Claims{
		User: UserClaims{ID: id, Role: role},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// NewJWTAuth returns the verifier matching tokens produced by Issuer
func NewJWTAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New(signingAlg, []byte(secret), nil)
}
