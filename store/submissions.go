// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/danielhkuo/crowdwork/models"
)

// NewSubmission is one worker's outcome for one (item, task, step).
type NewSubmission struct {
	OrganizationID string
	ItemID         string
	UserID         string
	TaskID         string
	Step           string
	StepIndex      *int
	Skipped        bool
	Data           json.RawMessage
	Client         json.RawMessage
}

// RecordSubmission validates and durably records one submission. Checks
// run in order, each a distinct failure: the item must exist (ErrNotFound),
// the worker's email must pass the organization gate (ErrUnauthorized),
// and the body must be well formed (ErrInvalidSubmission).
//
// The write is a single atomic conditional upsert on the natural key
// (organization, item, user, task, step): a missing or skipped row is
// always replaced, while a non-skipped row is only replaced by another
// non-skipped submission. Attempting to skip an already-completed step
// leaves the row untouched but still reports success.
func (s *Store) RecordSubmission(sub NewSubmission, email string) error {
	exists, err := s.ItemExists(sub.OrganizationID, sub.ItemID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("item %s/%s: %w", sub.OrganizationID, sub.ItemID, ErrNotFound)
	}

	authorized, err := s.IsAuthorized(sub.OrganizationID, email)
	if err != nil {
		return err
	}
	if !authorized {
		return fmt.Errorf("organization %s: %w", sub.OrganizationID, ErrUnauthorized)
	}

	step, stepIndex, err := validateSubmission(sub)
	if err != nil {
		return err
	}

	// The WHERE clause on the conflict action enforces "non-skipped cannot
	// be downgraded" inside the atomic statement itself; there is no
	// read-then-write window for a racing writer to exploit.
	_, err = s.db.Exec(`
		INSERT INTO submissions
			(organization_id, item_id, user_id, task_id, step,
			 step_index, skipped, data, client)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (organization_id, item_id, user_id, task_id, step)
		DO UPDATE SET
			step_index = EXCLUDED.step_index,
			skipped = EXCLUDED.skipped,
			data = EXCLUDED.data,
			client = EXCLUDED.client,
			date_modified = (now() at time zone 'utc')
		WHERE submissions.skipped OR NOT EXCLUDED.skipped
	`, sub.OrganizationID, sub.ItemID, sub.UserID, sub.TaskID, step,
		stepIndex, sub.Skipped, nullableJSON(sub.Data), nullableJSON(sub.Client))
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}

	return nil
}

// validateSubmission applies the body rules and resolves step defaults.
func validateSubmission(sub NewSubmission) (string, int, error) {
	if sub.TaskID == "" {
		return "", 0, fmt.Errorf("no task specified: %w", ErrInvalidSubmission)
	}

	hasData := !emptyJSON(sub.Data)
	if sub.Skipped && hasData {
		return "", 0, fmt.Errorf("skipped steps should not contain data: %w", ErrInvalidSubmission)
	}
	if !sub.Skipped && !hasData {
		return "", 0, fmt.Errorf("completed steps should contain data: %w", ErrInvalidSubmission)
	}

	step := sub.Step
	stepIndex := models.DefaultStepIndex
	switch {
	case step == "" && sub.StepIndex == nil:
		step = models.DefaultStep
	case step != "" && sub.StepIndex != nil && *sub.StepIndex >= 0:
		stepIndex = *sub.StepIndex
	default:
		return "", 0, fmt.Errorf("step and stepIndex must be given together, with stepIndex >= 0: %w",
			ErrInvalidSubmission)
	}

	return step, stepIndex, nil
}

// emptyJSON treats absent values and empty containers as "no data".
func emptyJSON(raw json.RawMessage) bool {
	trimmed := string(bytes.TrimSpace(raw))
	switch trimmed {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	return false
}

// submissionsQuery builds the latest-step-per-item view: for each
// (organization, item, worker) with non-skipped work on the task, the row
// with the highest step index. Used for listings, streaming export, and
// the completed count.
func submissionsQuery(withUser bool, limit int) string {
	userFilter := ""
	userParam := ""
	if withUser {
		userFilter = "AND user_id = $2"
		userParam = "AND s.user_id = $2"
	}
	limitClause := ""
	if limit > 0 {
		limitClause = fmt.Sprintf("LIMIT %d", limit)
	}

	return fmt.Sprintf(`
		SELECT
			s.organization_id, s.item_id, s.user_id, s.task_id,
			s.step, s.step_index, s.skipped, s.data,
			s.date_created, s.date_modified,
			i.collection_id, i.data
		FROM (
			SELECT organization_id, item_id, user_id, MAX(step_index) AS max_step
			FROM submissions
			WHERE NOT skipped AND task_id = $1 %s
			GROUP BY organization_id, item_id, user_id
		) m
		JOIN submissions s
			ON s.organization_id = m.organization_id AND
				s.item_id = m.item_id AND
				s.user_id = m.user_id AND
				s.step_index = m.max_step AND
				s.task_id = $1 AND NOT s.skipped %s
		JOIN items i
			ON i.organization_id = s.organization_id AND i.id = s.item_id
		ORDER BY s.date_modified DESC
		%s`, userFilter, userParam, limitClause)
}

// SubmissionsForTask lists the latest-step view for a task. An empty
// userID means all workers; limit 0 means no limit.
func (s *Store) SubmissionsForTask(taskID, userID string, limit int) ([]models.SubmissionRecord, error) {
	var records []models.SubmissionRecord
	err := s.StreamSubmissionsForTask(taskID, userID, limit, func(rec models.SubmissionRecord) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// StreamSubmissionsForTask walks the latest-step view row by row without
// materializing it, calling fn for each record. fn returning an error
// stops the walk.
func (s *Store) StreamSubmissionsForTask(taskID, userID string, limit int,
	fn func(models.SubmissionRecord) error) error {

	query := submissionsQuery(userID != "", limit)
	args := []interface{}{taskID}
	if userID != "" {
		args = append(args, userID)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.SubmissionRecord
		var orgID, itemID, taskID, collectionID string
		var data, itemData []byte

		err := rows.Scan(&orgID, &itemID, &rec.UserID, &taskID,
			&rec.Step, &rec.StepIndex, &rec.Skipped, &data,
			&rec.DateCreated, &rec.DateModified,
			&collectionID, &itemData)
		if err != nil {
			return fmt.Errorf("failed to scan submission: %w", err)
		}

		rec.Organization = models.OrganizationRef{ID: orgID}
		rec.Collection = models.CollectionRef{ID: collectionID}
		rec.Task = models.TaskRef{ID: taskID}
		rec.Item = models.ItemSummary{ID: itemID}
		if len(itemData) > 0 {
			rec.Item.Data = json.RawMessage(itemData)
		}
		if len(data) > 0 {
			rec.Data = json.RawMessage(data)
		}

		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SubmissionCount returns how many items the worker has completed (latest
// step non-skipped) for the task.
func (s *Store) SubmissionCount(taskID, userID string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM (%s) s", submissionsQuery(true, 0))

	var count int
	if err := s.db.QueryRow(query, taskID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// nullableJSON maps an absent JSON value to SQL NULL instead of the
// literal string "null".
func nullableJSON(raw json.RawMessage) interface{} {
	if emptyJSON(raw) {
		return nil
	}
	return []byte(raw)
}
