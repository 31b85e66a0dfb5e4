// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/crowdwork/cliparse"
	"github.com/danielhkuo/crowdwork/middleware"
	"github.com/danielhkuo/crowdwork/models"
	"github.com/danielhkuo/crowdwork/store"
)

type ItemHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewItemHandler(st *store.Store, cfg cliparse.Config) *ItemHandler {
	return &ItemHandler{store: st, cfg: cfg}
}

// Random handles GET /tasks/{task}/items/random
// Offers the worker one eligible item, chosen uniformly at random.
func (h *ItemHandler) Random(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task")
	if taskID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "task is required")
		return
	}

	claims := middleware.ClaimsFrom(r)

	filter := store.ItemFilter{Email: claims.Email}
	if v := r.URL.Query().Get("organization"); v != "" {
		filter.OrganizationIDs = strings.Split(v, ",")
	}
	if v := r.URL.Query().Get("collection"); v != "" {
		filter.CollectionIDs = strings.Split(v, ",")
	}

	item, err := h.store.RandomItem(claims.UserID(), taskID, filter)
	if errors.Is(err, store.ErrNotFound) {
		// An empty eligible set is a valid outcome, not a failure
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		slog.Error("failed to select random item", "error", err, "task_id", taskID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, item)
}

// Get handles GET /items/{organization}/{id}
// Returns the item, annotated with the caller's own steps if any.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	organizationID := chi.URLParam(r, "organization")
	itemID := chi.URLParam(r, "id")

	claims := middleware.ClaimsFrom(r)

	item, err := h.store.Item(organizationID, itemID, claims.UserID())
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		slog.Error("failed to query item", "error", err,
			"organization_id", organizationID, "item_id", itemID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, item)
}

// Submit handles POST /items/{organization}/{id}
// Records one worker's outcome (completed with data, or skipped) for one
// step of a task on the item.
func (h *ItemHandler) Submit(w http.ResponseWriter, r *http.Request) {
	organizationID := chi.URLParam(r, "organization")
	itemID := chi.URLParam(r, "id")

	var req models.SubmitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusNotAcceptable, "POST data should not be empty")
		return
	}

	claims := middleware.ClaimsFrom(r)

	client, err := json.Marshal(map[string]string{
		"ip": middleware.GetClientIP(r),
	})
	if err != nil {
		slog.Error("failed to encode client info", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record submission")
		return
	}

	sub := store.NewSubmission{
		OrganizationID: organizationID,
		ItemID:         itemID,
		UserID:         claims.UserID(),
		TaskID:         req.Task,
		Step:           req.Step,
		StepIndex:      req.StepIndex,
		Skipped:        req.Skipped,
		Data:           req.Data,
		Client:         client,
	}

	err = h.store.RecordSubmission(sub, claims.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		return
	case errors.Is(err, store.ErrUnauthorized):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authorized for this organization")
		return
	case errors.Is(err, store.ErrInvalidSubmission):
		middleware.ErrorResponse(w, http.StatusNotAcceptable, invalidSubmissionMessage(err))
		return
	case err != nil:
		slog.Error("failed to record submission", "error", err,
			"organization_id", organizationID, "item_id", itemID, "task_id", req.Task)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("submission recorded",
		"organization_id", organizationID,
		"item_id", itemID,
		"task_id", req.Task,
		"skipped", req.Skipped,
	)

	middleware.JSONResponse(w, http.StatusOK, models.SubmitResponse{Result: "success"})
}

// invalidSubmissionMessage strips the sentinel suffix so clients see only
// the human-readable part.
func invalidSubmissionMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ":"); i > 0 {
		return msg[:i]
	}
	return msg
}
