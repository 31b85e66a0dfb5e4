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

// ItemFilter narrows random item selection. Nil slices mean "no
// restriction"; Email is the worker's claimed email for the
// per-organization authorization gate.
type ItemFilter struct {
	OrganizationIDs []string
	CollectionIDs   []string
	Email           string
}

// RandomItem picks one item, uniformly at random, that the worker may be
// offered for the task:
//
//   - the item's collection is active for the task
//   - the organization's email gate passes for the worker's email
//   - any organization/collection filters match
//   - the worker has no submission for the item under this task,
//     completed or skipped
//   - the association's quota has headroom (NULL quota is unlimited)
//
// Returns ErrNotFound when no item qualifies. Selection is advisory only:
// two racing workers can be offered the same item, and the quota is
// enforced against recorded submissions, not offers.
func (s *Store) RandomItem(userID, taskID string, f ItemFilter) (*models.Item, error) {
	row := s.db.QueryRow(`
		SELECT
			i.organization_id, i.id, i.data,
			c.id, COALESCE(c.title, ''), COALESCE(c.url, ''), c.data
		FROM items i
		JOIN collections c
			ON c.organization_id = i.organization_id AND c.id = i.collection_id
		JOIN collections_tasks ct
			ON ct.organization_id = c.organization_id AND ct.collection_id = c.id
		JOIN organizations o
			ON o.id = i.organization_id
		LEFT JOIN submission_counts sc
			ON sc.organization_id = i.organization_id AND
				sc.item_id = i.id AND sc.task_id = ct.task_id
		WHERE
			ct.task_id = $2 AND
			(o.email_filter_regex IS NULL OR
				($3 <> '' AND $3 ~* o.email_filter_regex)) AND
			NOT EXISTS (
				SELECT 1 FROM submissions s
				WHERE s.organization_id = i.organization_id AND
					s.item_id = i.id AND
					s.user_id = $1 AND
					s.task_id = $2
			) AND
			($4::text[] IS NULL OR i.organization_id = ANY($4)) AND
			($5::text[] IS NULL OR i.collection_id = ANY($5)) AND
			(ct.submissions_needed IS NULL OR
				COALESCE(sc.count, 0) < ct.submissions_needed)
		ORDER BY RANDOM()
		LIMIT 1
	`, userID, taskID, f.Email,
		pq.Array(f.OrganizationIDs), pq.Array(f.CollectionIDs))

	item, err := s.scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no eligible item for task %s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Item returns one item with its collection, or ErrNotFound. When userID is
// non-empty the item is annotated with that worker's own recorded steps.
func (s *Store) Item(organizationID, itemID, userID string) (*models.Item, error) {
	row := s.db.QueryRow(`
		SELECT
			i.organization_id, i.id, i.data,
			c.id, COALESCE(c.title, ''), COALESCE(c.url, ''), c.data
		FROM items i
		JOIN collections c
			ON c.organization_id = i.organization_id AND c.id = i.collection_id
		WHERE i.organization_id = $1 AND i.id = $2
	`, organizationID, itemID)

	item, err := s.scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %s/%s: %w", organizationID, itemID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if userID != "" {
		steps, err := s.itemSteps(organizationID, itemID, userID)
		if err != nil {
			return nil, err
		}
		if len(steps) > 0 {
			item.Submission = &models.ItemSubmission{Steps: steps}
		}
	}

	return item, nil
}

// itemSteps loads one worker's recorded steps for an item, across all
// tasks, in step order.
func (s *Store) itemSteps(organizationID, itemID, userID string) ([]models.SubmissionStep, error) {
	rows, err := s.db.Query(`
		SELECT step, step_index, skipped, data, date_created, date_modified
		FROM submissions
		WHERE organization_id = $1 AND item_id = $2 AND user_id = $3
		ORDER BY step_index, step
	`, organizationID, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query item steps: %w", err)
	}
	defer rows.Close()

	var steps []models.SubmissionStep
	for rows.Next() {
		var step models.SubmissionStep
		var data []byte
		err := rows.Scan(&step.Step, &step.StepIndex, &step.Skipped,
			&data, &step.DateCreated, &step.DateModified)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item step: %w", err)
		}
		if len(data) > 0 {
			step.Data = json.RawMessage(data)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// scanItem builds an Item from the shared item+collection column list and
// attaches the collection's task associations.
func (s *Store) scanItem(sc scanner) (*models.Item, error) {
	var item models.Item
	var coll models.Collection
	var orgID string
	var itemData, collData []byte

	err := sc.Scan(&orgID, &item.ID, &itemData,
		&coll.ID, &coll.Title, &coll.URL, &collData)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	tasks, err := s.collectionTasks(orgID, coll.ID)
	if err != nil {
		return nil, err
	}

	item.Organization = models.OrganizationRef{ID: orgID}
	if len(itemData) > 0 {
		item.Data = json.RawMessage(itemData)
	}
	coll.Organization = models.OrganizationRef{ID: orgID}
	if len(collData) > 0 {
		coll.Data = json.RawMessage(collData)
	}
	coll.Tasks = tasks
	item.Collection = &coll

	return &item, nil
}
