// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-token-secret"

func TestMintAnonymousRoundTrip(t *testing.T) {
	token, minted, err := MintAnonymous(testSecret)
	if err != nil {
		t.Fatalf("MintAnonymous() error = %v", err)
	}
	if !minted.Anonymous {
		t.Error("Expected anonymous claims")
	}
	if minted.UserID() == "" {
		t.Error("Expected a minted worker id")
	}

	parsed, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.UserID() != minted.UserID() {
		t.Errorf("Parsed id %q != minted id %q", parsed.UserID(), minted.UserID())
	}
	if !parsed.Anonymous {
		t.Error("Anonymous flag lost in round trip")
	}
}

func TestMintAnonymousUniqueIDs(t *testing.T) {
	_, a, err := MintAnonymous(testSecret)
	if err != nil {
		t.Fatalf("MintAnonymous() error = %v", err)
	}
	_, b, err := MintAnonymous(testSecret)
	if err != nil {
		t.Fatalf("MintAnonymous() error = %v", err)
	}
	if a.UserID() == b.UserID() {
		t.Error("Two anonymous identities share an id")
	}
}

func TestMintAuthenticatedRoundTrip(t *testing.T) {
	token, minted, err := MintAuthenticated("worker@example.com", testSecret)
	if err != nil {
		t.Fatalf("MintAuthenticated() error = %v", err)
	}
	if minted.Anonymous {
		t.Error("Authenticated claims flagged anonymous")
	}
	if minted.Email != "worker@example.com" {
		t.Errorf("Expected email preserved, got %q", minted.Email)
	}

	parsed, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.Email != "worker@example.com" {
		t.Errorf("Expected email in parsed claims, got %q", parsed.Email)
	}
	if parsed.UserID() != PermanentUserID("worker@example.com") {
		t.Error("Authenticated subject does not match derived permanent id")
	}
}

// The permanent id is a pure function of the normalized email.
func TestPermanentUserIDStable(t *testing.T) {
	a := PermanentUserID("worker@example.com")
	b := PermanentUserID("worker@example.com")
	if a != b {
		t.Errorf("Same email produced different ids: %q vs %q", a, b)
	}

	if PermanentUserID("Worker@Example.COM") != a {
		t.Error("Expected case-insensitive derivation")
	}
	if PermanentUserID("  worker@example.com  ") != a {
		t.Error("Expected whitespace-trimmed derivation")
	}
	if PermanentUserID("other@example.com") == a {
		t.Error("Different emails produced the same id")
	}
}

func TestParseRejectsBadTokens(t *testing.T) {
	valid, _, err := MintAnonymous(testSecret)
	if err != nil {
		t.Fatalf("MintAnonymous() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"tampered", valid + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.token, testSecret); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}

	if _, err := Parse(valid, "wrong-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() with wrong secret error = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	claims := Claims{
		Anonymous: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "expired-worker",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, _, err := sign(claims, testSecret)
	if err != nil {
		t.Fatalf("sign() error = %v", err)
	}

	if _, err := Parse(token, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() of expired token error = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsMissingSubject(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, _, err := sign(claims, testSecret)
	if err != nil {
		t.Fatalf("sign() error = %v", err)
	}

	if _, err := Parse(token, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse() of subject-less token error = %v, want ErrInvalidToken", err)
	}
}
