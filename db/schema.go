// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables, indexes, and views needed for the
// application. Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Organizations (tenants). email_filter_regex gates which workers may see
-- the organization's items; NULL means open to all.
CREATE TABLE IF NOT EXISTS organizations (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    email_filter_regex TEXT
);

-- Tasks
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    description TEXT
);

-- Collections
CREATE TABLE IF NOT EXISTS collections (
    organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    title TEXT,
    url TEXT,
    data JSONB,
    PRIMARY KEY (organization_id, id)
);

-- Collection/task associations. submissions_needed NULL means unlimited.
CREATE TABLE IF NOT EXISTS collections_tasks (
    organization_id TEXT NOT NULL,
    collection_id TEXT NOT NULL,
    task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    submissions_needed INTEGER CHECK (submissions_needed > 0),
    PRIMARY KEY (organization_id, collection_id, task_id),
    FOREIGN KEY (organization_id, collection_id)
        REFERENCES collections(organization_id, id) ON DELETE CASCADE
);

-- Items
CREATE TABLE IF NOT EXISTS items (
    organization_id TEXT NOT NULL,
    id TEXT NOT NULL,
    collection_id TEXT NOT NULL,
    data JSONB,
    PRIMARY KEY (organization_id, id),
    FOREIGN KEY (organization_id, collection_id)
        REFERENCES collections(organization_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_items_collection
    ON items(organization_id, collection_id);

-- Submissions. One logical row per natural key; the upsert in the store
-- package enforces that a non-skipped row is never downgraded to skipped.
CREATE TABLE IF NOT EXISTS submissions (
    organization_id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    task_id TEXT NOT NULL REFERENCES tasks(id),
    step TEXT NOT NULL,
    step_index INTEGER NOT NULL DEFAULT 0,
    skipped BOOLEAN NOT NULL DEFAULT FALSE,
    data JSONB,
    client JSONB,
    date_created TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc'),
    date_modified TIMESTAMP NOT NULL DEFAULT (now() at time zone 'utc'),
    PRIMARY KEY (organization_id, item_id, user_id, task_id, step),
    FOREIGN KEY (organization_id, item_id)
        REFERENCES items(organization_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_submissions_user_task
    ON submissions(user_id, task_id);
CREATE INDEX IF NOT EXISTS idx_submissions_task
    ON submissions(task_id);

-- Quota projection: distinct workers with at least one non-skipped step
-- per (organization, item, task). A view, not a counter, so it can never
-- drift from the submissions table.
CREATE OR REPLACE VIEW submission_counts AS
SELECT
    organization_id,
    item_id,
    task_id,
    COUNT(DISTINCT user_id)::int AS count
FROM submissions
WHERE NOT skipped
GROUP BY organization_id, item_id, task_id;
`
