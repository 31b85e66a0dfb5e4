// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Worker Identity

Identity resolves the worker behind every request from the Authorization
bearer token. Requests without a valid token get a fresh anonymous
identity; its signed token is returned in the X-Session-Token response
header for the client to present on later requests:

	r.Use(middleware.Identity(cfg.TokenSecret))

Handlers read the resolved identity from the request context:

	claims := middleware.ClaimsFrom(r)

# Request Logging

Wrap handlers with request logging:

	r.Get("/tasks", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms).

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies:

	var req models.SubmitRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Recorded alongside each submission as client metadata.
*/
package middleware
