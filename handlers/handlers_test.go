// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/crowdwork/auth"
	"github.com/danielhkuo/crowdwork/cliparse"
	"github.com/danielhkuo/crowdwork/middleware"
	"github.com/danielhkuo/crowdwork/store"
	"github.com/danielhkuo/crowdwork/testutil"
)

func setupTestDB(t *testing.T) *sql.DB {
	return testutil.SetupTestDB(t)
}

func getTestConfig() cliparse.Config {
	return testutil.GetTestConfig()
}

// newTestMux mounts the handlers the way the router does, identity
// middleware included, so tests exercise the full request path.
func newTestMux(conn *sql.DB, cfg cliparse.Config) http.Handler {
	st := store.New(conn)
	catalogHandler := NewCatalogHandler(st, cfg)
	itemHandler := NewItemHandler(st, cfg)
	submissionHandler := NewSubmissionHandler(st, cfg)
	sessionHandler := NewSessionHandler(st, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Identity(cfg.TokenSecret))

	r.Get("/tasks", catalogHandler.Tasks)
	r.Get("/organizations", catalogHandler.Organizations)
	r.Get("/organizations/{id}/collections", catalogHandler.OrganizationCollections)
	r.Get("/organizations/{id}/collections/{collectionId}", catalogHandler.OrganizationCollection)
	r.Get("/collections", catalogHandler.AuthorizedCollections)
	r.Get("/tasks/{task}/items/random", itemHandler.Random)
	r.Get("/items/{organization}/{id}", itemHandler.Get)
	r.Post("/items/{organization}/{id}", itemHandler.Submit)
	r.Get("/tasks/{task}/submissions", submissionHandler.Mine)
	r.Get("/tasks/{task}/submissions/all", submissionHandler.All)
	r.Get("/tasks/{task}/submissions/all.ndjson", submissionHandler.AllNDJSON)
	r.Get("/tasks/{task}/submissions/count", submissionHandler.Count)
	r.Post("/auth/login", sessionHandler.Login)

	return r
}

// seedCatalog loads one open organization, collection, task and item.
func seedCatalog(t *testing.T, conn *sql.DB) {
	t.Helper()
	testutil.CreateTestOrg(t, conn, "org1", "Test Org", nil)
	testutil.CreateTestTask(t, conn, "transcribe", "Transcribe the text")
	testutil.CreateTestCollection(t, conn, "org1", "coll1", "Test Collection")
	testutil.LinkCollectionTask(t, conn, "org1", "coll1", "transcribe", nil)
	testutil.CreateTestItem(t, conn, "org1", "coll1", "item1")
}

// anonBearer mints an anonymous session and returns its auth header plus
// the worker id it identifies.
func anonBearer(t *testing.T, cfg cliparse.Config) (map[string]string, string) {
	t.Helper()
	token, claims, err := auth.MintAnonymous(cfg.TokenSecret)
	if err != nil {
		t.Fatalf("Failed to mint session token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}, claims.UserID()
}

// userBearer mints an authenticated session for the email.
func userBearer(t *testing.T, cfg cliparse.Config, email string) (map[string]string, string) {
	t.Helper()
	token, claims, err := auth.MintAuthenticated(email, cfg.TokenSecret)
	if err != nil {
		t.Fatalf("Failed to mint session token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}, claims.UserID()
}
