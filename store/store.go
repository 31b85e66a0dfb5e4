// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/crowdwork/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidSubmission = errors.New("invalid submission")
)

// Store runs all catalog reads and submission writes against one shared
// database handle. It holds no state of its own beyond the handle, so a
// single instance is safe for concurrent request handlers.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Tasks returns all task definitions.
func (s *Store) Tasks() ([]models.Task, error) {
	rows, err := s.db.Query(`
		SELECT id, COALESCE(description, '')
		FROM tasks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Description); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Organizations returns all organizations. The email filter regex stays
// internal; it is never serialized to clients.
func (s *Store) Organizations() ([]models.Organization, error) {
	rows, err := s.db.Query(`
		SELECT id, title, email_filter_regex
		FROM organizations
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Title, &o.EmailFilterRegex); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// ItemExists reports whether the item is present in the catalog.
func (s *Store) ItemExists(organizationID, itemID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM items
			WHERE organization_id = $1 AND id = $2
		)
	`, organizationID, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check item existence: %w", err)
	}
	return exists, nil
}

// IsAuthorized reports whether a worker claiming the given email may act on
// the organization's items. Unknown organizations are not authorized.
func (s *Store) IsAuthorized(organizationID, email string) (bool, error) {
	var authorized bool
	err := s.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM organizations
			WHERE id = $1 AND (
				email_filter_regex IS NULL OR
				($2 <> '' AND $2 ~* email_filter_regex)
			)
		)
	`, organizationID, email).Scan(&authorized)
	if err != nil {
		return false, fmt.Errorf("failed to check authorization: %w", err)
	}
	return authorized, nil
}

// SubmissionQuota returns the quota count for (organization, item, task):
// the number of distinct workers whose recorded work on the item is
// non-skipped. Recomputed from the submissions table on every call.
func (s *Store) SubmissionQuota(organizationID, itemID, taskID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COALESCE((
			SELECT count FROM submission_counts
			WHERE organization_id = $1 AND item_id = $2 AND task_id = $3
		), 0)
	`, organizationID, itemID, taskID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query submission count: %w", err)
	}
	return count, nil
}
