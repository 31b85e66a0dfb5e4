// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
)

// SeedData is the shape of a seed file: catalog rows provisioned
// out-of-band. Submissions are never seeded.
type SeedData struct {
	Organizations []SeedOrganization `json:"organizations"`
	Tasks         []SeedTask         `json:"tasks"`
	Collections   []SeedCollection   `json:"collections"`
	Items         []SeedItem         `json:"items"`
}

type SeedOrganization struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	EmailFilterRegex *string `json:"emailFilterRegex"`
}

type SeedTask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type SeedCollection struct {
	OrganizationID string          `json:"organization"`
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	URL            string          `json:"url"`
	Data           json.RawMessage `json:"data"`
	Tasks          []SeedTaskLink  `json:"tasks"`
}

type SeedTaskLink struct {
	ID                string `json:"id"`
	SubmissionsNeeded *int   `json:"submissionsNeeded"`
}

type SeedItem struct {
	OrganizationID string          `json:"organization"`
	CollectionID   string          `json:"collection"`
	ID             string          `json:"id"`
	Data           json.RawMessage `json:"data"`
}

// Seed loads catalog rows from a JSON file. Existing rows are left
// untouched, so re-seeding a live database is safe.
func Seed(db *sql.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var data SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, org := range data.Organizations {
		_, err := tx.Exec(`
			INSERT INTO organizations (id, title, email_filter_regex)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO NOTHING
		`, org.ID, org.Title, org.EmailFilterRegex)
		if err != nil {
			return fmt.Errorf("failed to seed organization %s: %w", org.ID, err)
		}
	}

	for _, task := range data.Tasks {
		_, err := tx.Exec(`
			INSERT INTO tasks (id, description)
			VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING
		`, task.ID, task.Description)
		if err != nil {
			return fmt.Errorf("failed to seed task %s: %w", task.ID, err)
		}
	}

	for _, coll := range data.Collections {
		_, err := tx.Exec(`
			INSERT INTO collections (organization_id, id, title, url, data)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (organization_id, id) DO NOTHING
		`, coll.OrganizationID, coll.ID, coll.Title, coll.URL, nullableJSON(coll.Data))
		if err != nil {
			return fmt.Errorf("failed to seed collection %s/%s: %w", coll.OrganizationID, coll.ID, err)
		}

		for _, link := range coll.Tasks {
			_, err := tx.Exec(`
				INSERT INTO collections_tasks (organization_id, collection_id, task_id, submissions_needed)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (organization_id, collection_id, task_id) DO NOTHING
			`, coll.OrganizationID, coll.ID, link.ID, link.SubmissionsNeeded)
			if err != nil {
				return fmt.Errorf("failed to seed collection task %s/%s/%s: %w",
					coll.OrganizationID, coll.ID, link.ID, err)
			}
		}
	}

	for _, item := range data.Items {
		_, err := tx.Exec(`
			INSERT INTO items (organization_id, id, collection_id, data)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (organization_id, id) DO NOTHING
		`, item.OrganizationID, item.ID, item.CollectionID, nullableJSON(item.Data))
		if err != nil {
			return fmt.Errorf("failed to seed item %s/%s: %w", item.OrganizationID, item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	return nil
}

// nullableJSON maps an absent JSON value to SQL NULL instead of the
// literal string "null".
func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return []byte(raw)
}
