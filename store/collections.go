// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/danielhkuo/crowdwork/models"
)

// CollectionFilter narrows a Collections listing. Zero values mean "no
// restriction" except AuthorizedOnly, which additionally applies the
// per-organization email gate for Email.
type CollectionFilter struct {
	OrganizationID string
	TaskID         string
	Email          string
	AuthorizedOnly bool
}

// Collections lists collections with their task associations and quotas.
// Collections with no task association are never listed; without at least
// one association a collection is not eligible for assignment.
func (s *Store) Collections(f CollectionFilter) ([]models.Collection, error) {
	rows, err := s.db.Query(`
		SELECT
			c.organization_id, c.id, COALESCE(c.title, ''), COALESCE(c.url, ''), c.data,
			array_agg(ct.task_id ORDER BY ct.task_id),
			array_agg(ct.submissions_needed ORDER BY ct.task_id)
		FROM collections c
		JOIN collections_tasks ct
			ON ct.organization_id = c.organization_id AND ct.collection_id = c.id
		JOIN organizations o
			ON o.id = c.organization_id
		WHERE
			($1 = '' OR c.organization_id = $1) AND
			(NOT $3 OR o.email_filter_regex IS NULL OR
				($4 <> '' AND $4 ~* o.email_filter_regex))
		GROUP BY c.organization_id, c.id, c.title, c.url, c.data
		HAVING ($2 = '' OR bool_or(ct.task_id = $2))
		ORDER BY c.organization_id, c.id
	`, f.OrganizationID, f.TaskID, f.AuthorizedOnly, f.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	var collections []models.Collection
	for rows.Next() {
		coll, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, coll)
	}
	return collections, rows.Err()
}

// Collection returns one collection with its task associations, or
// ErrNotFound.
func (s *Store) Collection(organizationID, collectionID string) (*models.Collection, error) {
	row := s.db.QueryRow(`
		SELECT
			c.organization_id, c.id, COALESCE(c.title, ''), COALESCE(c.url, ''), c.data,
			array_agg(ct.task_id ORDER BY ct.task_id),
			array_agg(ct.submissions_needed ORDER BY ct.task_id)
		FROM collections c
		JOIN collections_tasks ct
			ON ct.organization_id = c.organization_id AND ct.collection_id = c.id
		WHERE c.organization_id = $1 AND c.id = $2
		GROUP BY c.organization_id, c.id, c.title, c.url, c.data
	`, organizationID, collectionID)

	coll, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("collection %s/%s: %w", organizationID, collectionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &coll, nil
}

// collectionTasks loads the task associations for one collection.
func (s *Store) collectionTasks(organizationID, collectionID string) ([]models.CollectionTask, error) {
	rows, err := s.db.Query(`
		SELECT task_id, submissions_needed
		FROM collections_tasks
		WHERE organization_id = $1 AND collection_id = $2
		ORDER BY task_id
	`, organizationID, collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.CollectionTask
	for rows.Next() {
		var ct models.CollectionTask
		var needed sql.NullInt64
		if err := rows.Scan(&ct.ID, &needed); err != nil {
			return nil, fmt.Errorf("failed to scan collection task: %w", err)
		}
		if needed.Valid {
			n := int(needed.Int64)
			ct.SubmissionsNeeded = &n
		}
		tasks = append(tasks, ct)
	}
	return tasks, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCollection(sc scanner) (models.Collection, error) {
	var coll models.Collection
	var orgID string
	var data []byte
	var taskIDs pq.StringArray
	var needed []sql.NullInt64

	err := sc.Scan(&orgID, &coll.ID, &coll.Title, &coll.URL, &data,
		&taskIDs, pq.Array(&needed))
	if err == sql.ErrNoRows {
		return coll, err
	}
	if err != nil {
		return coll, fmt.Errorf("failed to scan collection: %w", err)
	}

	coll.Organization = models.OrganizationRef{ID: orgID}
	if len(data) > 0 {
		coll.Data = json.RawMessage(data)
	}
	coll.Tasks = zipCollectionTasks(taskIDs, needed)
	return coll, nil
}

// zipCollectionTasks pairs the parallel array_agg columns.
func zipCollectionTasks(taskIDs []string, needed []sql.NullInt64) []models.CollectionTask {
	tasks := make([]models.CollectionTask, 0, len(taskIDs))
	for i, id := range taskIDs {
		ct := models.CollectionTask{ID: id}
		if i < len(needed) && needed[i].Valid {
			n := int(needed[i].Int64)
			ct.SubmissionsNeeded = &n
		}
		tasks = append(tasks, ct)
	}
	return tasks
}
