// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielhkuo/crowdwork/auth"
)

type contextKey string

const identityKey contextKey = "identity"

// SessionTokenHeader carries a freshly minted anonymous token back to the
// client, which must present it as a bearer token on later requests to
// keep the same identity.
const SessionTokenHeader = "X-Session-Token"

// Identity resolves the worker behind every request. A valid bearer token
// keeps its identity; a missing or invalid one gets a new anonymous
// identity whose token is returned in the X-Session-Token header.
func Identity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := auth.Parse(BearerToken(r), secret)
			if err != nil {
				token, minted, mintErr := auth.MintAnonymous(secret)
				if mintErr != nil {
					ErrorResponse(w, http.StatusInternalServerError, "Failed to establish session")
					return
				}
				w.Header().Set(SessionTokenHeader, token)
				claims = minted
			}

			ctx := context.WithValue(r.Context(), identityKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom returns the worker claims resolved by Identity. The zero
// value means the middleware did not run (only happens in tests).
func ClaimsFrom(r *http.Request) auth.Claims {
	claims, _ := r.Context().Value(identityKey).(auth.Claims)
	return claims
}

// WithClaims attaches claims to a request. Test helper for exercising
// handlers without the full middleware chain.
func WithClaims(r *http.Request, claims auth.Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), identityKey, claims))
}

// BearerToken extracts the token from the Authorization header, or ""
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
