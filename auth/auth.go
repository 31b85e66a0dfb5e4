// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// workerNamespace seeds the uuid v5 derivation of permanent worker ids, so
// the same verified email always maps to the same id.
var workerNamespace = uuid.MustParse("7f9db4a6-6f10-4447-9c7b-a6dbcc7a55a2")

// tokenTTL bounds every issued session token.
const tokenTTL = 180 * 24 * time.Hour

// Claims identifies the worker behind a request. Anonymous claims carry a
// random id minted before the worker ever authenticates.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the worker id the claims identify.
func (c Claims) UserID() string {
	return c.Subject
}

// PermanentUserID derives the stable worker id for a verified email.
func PermanentUserID(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(workerNamespace, []byte(normalized)).String()
}

// MintAnonymous issues a signed token for a brand-new anonymous identity.
func MintAnonymous(secret string) (string, Claims, error) {
	claims := Claims{
		Anonymous: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	return sign(claims, secret)
}

// MintAuthenticated issues a signed token for the permanent identity
// derived from a verified email.
func MintAuthenticated(email, secret string) (string, Claims, error) {
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   PermanentUserID(email),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	return sign(claims, secret)
}

func sign(claims Claims, secret string) (string, Claims, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", Claims{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies a session token and returns its claims. Expired tokens,
// bad signatures, and non-HMAC algorithms all return ErrInvalidToken.
func Parse(tokenString, secret string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
