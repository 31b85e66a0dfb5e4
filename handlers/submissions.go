// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/crowdwork/cliparse"
	"github.com/danielhkuo/crowdwork/middleware"
	"github.com/danielhkuo/crowdwork/models"
	"github.com/danielhkuo/crowdwork/store"
)

// allSubmissionsLimit caps the non-streaming all-workers listing.
const allSubmissionsLimit = 1000

type SubmissionHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewSubmissionHandler(st *store.Store, cfg cliparse.Config) *SubmissionHandler {
	return &SubmissionHandler{store: st, cfg: cfg}
}

// Mine handles GET /tasks/{task}/submissions
// Lists the caller's latest-step-per-item submissions for the task.
func (h *SubmissionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task")
	claims := middleware.ClaimsFrom(r)

	records, err := h.store.SubmissionsForTask(taskID, claims.UserID(), 0)
	if err != nil {
		slog.Error("failed to query submissions", "error", err, "task_id", taskID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if records == nil {
		records = []models.SubmissionRecord{}
	}

	middleware.JSONResponse(w, http.StatusOK, records)
}

// All handles GET /tasks/{task}/submissions/all
// Lists every worker's latest-step submissions, capped at 1000 rows.
// Use the NDJSON export for complete dumps.
func (h *SubmissionHandler) All(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task")

	records, err := h.store.SubmissionsForTask(taskID, "", allSubmissionsLimit)
	if err != nil {
		slog.Error("failed to query submissions", "error", err, "task_id", taskID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if records == nil {
		records = []models.SubmissionRecord{}
	}

	middleware.JSONResponse(w, http.StatusOK, records)
}

// AllNDJSON handles GET /tasks/{task}/submissions/all.ndjson
// Streams every worker's latest-step submissions, one JSON object per
// line, without materializing the result set.
func (h *SubmissionHandler) AllNDJSON(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task")

	w.Header().Set("Content-Type", "application/x-ndjson")

	enc := json.NewEncoder(w)
	err := h.store.StreamSubmissionsForTask(taskID, "", 0, func(rec models.SubmissionRecord) error {
		return enc.Encode(rec)
	})
	if err != nil {
		// Headers may already be sent; log and abort the stream.
		slog.Error("failed to stream submissions", "error", err, "task_id", taskID)
	}
}

// Count handles GET /tasks/{task}/submissions/count
// Returns how many items the caller has completed for the task.
func (h *SubmissionHandler) Count(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task")
	claims := middleware.ClaimsFrom(r)

	count, err := h.store.SubmissionCount(taskID, claims.UserID())
	if err != nil {
		slog.Error("failed to count submissions", "error", err, "task_id", taskID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CountResponse{Completed: count})
}
