// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the crowdwork API.

# Route Registration

NewRouter creates a configured chi router with all endpoints:

	handler := router.NewRouter(db, cfg)

Every route runs behind CORS and the worker identity middleware.

# Endpoints

Health:

	GET /health

Catalog (public):

	GET /tasks
	GET /organizations
	GET /organizations/{id}/collections
	GET /organizations/{id}/collections/{collectionId}
	GET /collections?task=t - collections the caller is authorized for

Item assignment and submissions:

	GET  /tasks/{task}/items/random - random eligible item for the caller
	GET  /items/{organization}/{id} - item, with the caller's own steps
	POST /items/{organization}/{id} - record completed or skipped work

Submission views:

	GET /tasks/{task}/submissions            - caller's latest per item
	GET /tasks/{task}/submissions/all        - all workers (capped)
	GET /tasks/{task}/submissions/all.ndjson - streaming export
	GET /tasks/{task}/submissions/count      - caller's completed count

Session:

	POST /auth/login - merge anonymous history into permanent identity

# Handler Initialization

The router creates handler instances with dependency injection:

	catalogHandler := handlers.NewCatalogHandler(st, cfg)
	itemHandler := handlers.NewItemHandler(st, cfg)
	submissionHandler := handlers.NewSubmissionHandler(st, cfg)
	sessionHandler := handlers.NewSessionHandler(st, cfg)
*/
package router
