// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the crowdwork API server.

Crowdwork distributes crowdsourced micro-tasks: organizations own
collections of items, workers (often anonymous) are assigned random
eligible items for a task, and their step-wise outcomes are recorded
until each item has collected enough completed work.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... TOKEN_SECRET=... go run main.go

Or with flags:

	go run main.go -p 3011 -d "postgres://..." -token-secret "..."

A .env file in the working directory is loaded first.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string
  - TOKEN_SECRET (-token-secret): secret for session token signing

Optional settings:

  - PORT (-p): server port (default: 3011)
  - SEED_FILE (-seed): catalog seed file loaded at startup

# Architecture

The server uses a handler-based architecture with dependency injection:

  - store: item assignment, submission recording, identity merging
  - handlers: HTTP request handlers (catalog, items, submissions, session)
  - router: route definitions using chi
  - middleware: worker identity, CORS, logging, JSON helpers
  - models: request/response and domain types
  - auth: session token minting and verification
  - db: schema creation and catalog seeding
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
