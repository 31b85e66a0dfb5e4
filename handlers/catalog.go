// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/crowdwork/cliparse"
	"github.com/danielhkuo/crowdwork/middleware"
	"github.com/danielhkuo/crowdwork/models"
	"github.com/danielhkuo/crowdwork/store"
)

type CatalogHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewCatalogHandler(st *store.Store, cfg cliparse.Config) *CatalogHandler {
	return &CatalogHandler{store: st, cfg: cfg}
}

// Tasks handles GET /tasks
func (h *CatalogHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.store.Tasks()
	if err != nil {
		slog.Error("failed to query tasks", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	middleware.JSONResponse(w, http.StatusOK, tasks)
}

// Organizations handles GET /organizations
func (h *CatalogHandler) Organizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.store.Organizations()
	if err != nil {
		slog.Error("failed to query organizations", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}

	middleware.JSONResponse(w, http.StatusOK, orgs)
}

// AuthorizedCollections handles GET /collections?task=t
// Lists collections the caller's email is authorized for, optionally
// narrowed to those active for one task.
func (h *CatalogHandler) AuthorizedCollections(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	collections, err := h.store.Collections(store.CollectionFilter{
		TaskID:         r.URL.Query().Get("task"),
		Email:          claims.Email,
		AuthorizedOnly: true,
	})
	if err != nil {
		slog.Error("failed to query collections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if collections == nil {
		collections = []models.Collection{}
	}

	middleware.JSONResponse(w, http.StatusOK, collections)
}

// OrganizationCollections handles GET /organizations/{id}/collections
func (h *CatalogHandler) OrganizationCollections(w http.ResponseWriter, r *http.Request) {
	organizationID := chi.URLParam(r, "id")

	collections, err := h.store.Collections(store.CollectionFilter{
		OrganizationID: organizationID,
	})
	if err != nil {
		slog.Error("failed to query collections", "error", err,
			"organization_id", organizationID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if collections == nil {
		collections = []models.Collection{}
	}

	middleware.JSONResponse(w, http.StatusOK, collections)
}

// OrganizationCollection handles GET /organizations/{id}/collections/{collectionId}
func (h *CatalogHandler) OrganizationCollection(w http.ResponseWriter, r *http.Request) {
	organizationID := chi.URLParam(r, "id")
	collectionID := chi.URLParam(r, "collectionId")

	collection, err := h.store.Collection(organizationID, collectionID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		slog.Error("failed to query collection", "error", err,
			"organization_id", organizationID, "collection_id", collectionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, collection)
}
