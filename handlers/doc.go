// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers implements HTTP request handlers for the crowdwork API.

# Handler Types

Each handler owns one slice of the API and receives the store and config
via dependency injection:

  - CatalogHandler: tasks, organizations, and collection listings
  - ItemHandler: random assignment, item lookup, submission recording
  - SubmissionHandler: per-worker and all-worker submission views,
    NDJSON export, completed count
  - SessionHandler: login and identity merging

# Identity

All handlers read the worker identity resolved by the middleware:

	claims := middleware.ClaimsFrom(r)

Anonymous and authenticated workers are served identically; only the
login flow distinguishes them.

# Error Mapping

Store sentinel errors map onto HTTP statuses:

	store.ErrNotFound          -> 404
	store.ErrUnauthorized      -> 401
	store.ErrInvalidSubmission -> 406
	anything else              -> 500
*/
package handlers
