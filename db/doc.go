// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation and catalog seeding.

# Schema

CreateSchema creates all tables, indexes, and the submission_counts view.
It is idempotent (IF NOT EXISTS) and runs at server startup:

	if err := db.CreateSchema(dbConn); err != nil {
		// handle error
	}

Tables:

  - organizations: tenants, with an optional email_filter_regex gate
  - tasks: named work definitions
  - collections: item groups owned by one organization
  - collections_tasks: per-task quota associations (NULL = unlimited)
  - items: units of work inside a collection
  - submissions: one row per (organization, item, user, task, step)

Views:

  - submission_counts: distinct workers with a non-skipped step per
    (organization, item, task); consulted by random item selection

# Seeding

Seed loads organizations, tasks, collections, and items from a JSON
file. Rows that already exist are left untouched:

	if err := db.Seed(dbConn, "seed.json"); err != nil {
		// handle error
	}

Submissions are never seeded; they only appear through the API.
*/
package db
