// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/danielhkuo/crowdwork/cliparse"
	"github.com/danielhkuo/crowdwork/handlers"
	"github.com/danielhkuo/crowdwork/middleware"
	"github.com/danielhkuo/crowdwork/store"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) http.Handler {
	st := store.New(db)

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(st, cfg)
	itemHandler := handlers.NewItemHandler(st, cfg)
	submissionHandler := handlers.NewSubmissionHandler(st, cfg)
	sessionHandler := handlers.NewSessionHandler(st, cfg)

	r := chi.NewRouter()

	// Browser clients call from arbitrary origins with credentials, so the
	// origin is reflected rather than wildcarded.
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  func(r *http.Request, origin string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{middleware.SessionTokenHeader},
		AllowCredentials: true,
	}))
	r.Use(middleware.Identity(cfg.TokenSecret))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Catalog (public)
	r.Get("/tasks", middleware.WithLogging(catalogHandler.Tasks))
	r.Get("/organizations", middleware.WithLogging(catalogHandler.Organizations))
	r.Get("/organizations/{id}/collections", middleware.WithLogging(catalogHandler.OrganizationCollections))
	r.Get("/organizations/{id}/collections/{collectionId}", middleware.WithLogging(catalogHandler.OrganizationCollection))
	r.Get("/collections", middleware.WithLogging(catalogHandler.AuthorizedCollections))

	// Item assignment and submission recording
	r.Get("/tasks/{task}/items/random", middleware.WithLogging(itemHandler.Random))
	r.Get("/items/{organization}/{id}", middleware.WithLogging(itemHandler.Get))
	r.Post("/items/{organization}/{id}", middleware.WithLogging(itemHandler.Submit))

	// Submission views
	r.Get("/tasks/{task}/submissions", middleware.WithLogging(submissionHandler.Mine))
	r.Get("/tasks/{task}/submissions/all", middleware.WithLogging(submissionHandler.All))
	r.Get("/tasks/{task}/submissions/all.ndjson", middleware.WithLogging(submissionHandler.AllNDJSON))
	r.Get("/tasks/{task}/submissions/count", middleware.WithLogging(submissionHandler.Count))

	// Session management
	r.Post("/auth/login", middleware.WithLogging(sessionHandler.Login))

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("crowdwork API v1"))
	})

	return r
}
