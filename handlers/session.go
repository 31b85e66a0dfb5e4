// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/crowdwork/auth"
	"github.com/danielhkuo/crowdwork/cliparse"
	"github.com/danielhkuo/crowdwork/middleware"
	"github.com/danielhkuo/crowdwork/models"
	"github.com/danielhkuo/crowdwork/store"
)

type SessionHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewSessionHandler(st *store.Store, cfg cliparse.Config) *SessionHandler {
	return &SessionHandler{store: st, cfg: cfg}
}

// Login handles POST /auth/login
// Upgrades the caller to their permanent identity. The email is assumed
// verified by the upstream OAuth proxy; this endpoint derives the stable
// worker id, merges the caller's anonymous history (current session plus
// any previousTokens from other devices) into it, and issues a fresh
// token.
//
// A failed merge leaves all histories unchanged - callers should retry
// the login rather than treating the state as unknown.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}

	token, permanent, err := auth.MintAuthenticated(req.Email, h.cfg.TokenSecret)
	if err != nil {
		slog.Error("failed to mint session token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Login failed")
		return
	}

	oldIDs := h.anonymousIDs(r, req, permanent.UserID())
	if len(oldIDs) > 0 {
		if err := h.store.MergeUserIDs(oldIDs, permanent.UserID()); err != nil {
			slog.Error("failed to merge identities", "error", err,
				"new_user_id", permanent.UserID(), "old_count", len(oldIDs))
			middleware.ErrorResponse(w, http.StatusInternalServerError,
				"Login failed, session state unchanged - please retry")
			return
		}

		slog.Info("identities merged",
			"new_user_id", permanent.UserID(), "old_count", len(oldIDs))
	}

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		UserID: permanent.UserID(),
		Token:  token,
	})
}

// anonymousIDs collects the distinct prior identities to fold into the
// permanent one: the current session if anonymous, plus any valid
// previous tokens the client presents.
func (h *SessionHandler) anonymousIDs(r *http.Request, req models.LoginRequest, permanentID string) []string {
	seen := map[string]bool{permanentID: true}
	var ids []string

	current := middleware.ClaimsFrom(r)
	if current.Anonymous && current.UserID() != "" && !seen[current.UserID()] {
		seen[current.UserID()] = true
		ids = append(ids, current.UserID())
	}

	for _, token := range req.PreviousTokens {
		claims, err := auth.Parse(token, h.cfg.TokenSecret)
		if err != nil {
			// An expired or foreign token has nothing to merge
			continue
		}
		if claims.Anonymous && !seen[claims.UserID()] {
			seen[claims.UserID()] = true
			ids = append(ids, claims.UserID())
		}
	}

	return ids
}
