// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"fmt"

	"github.com/lib/pq"
)

// MergeUserIDs folds the submission histories of old (typically anonymous)
// worker identities into newUserID. For every (organization, item, task,
// step) where more than one of the merged identities has a row, exactly one row
// survives: non-skipped beats skipped, then the most recently modified
// wins. Losing rows are deleted and every surviving row still owned by an
// old identity is re-pointed at newUserID.
//
// The whole merge runs in one transaction; a failure leaves the store
// unchanged. The operation is idempotent - retrying a failed merge
// converges to the same end state.
func (s *Store) MergeUserIDs(oldUserIDs []string, newUserID string) error {
	if newUserID == "" {
		return fmt.Errorf("merge requires a new user id: %w", ErrInvalidSubmission)
	}

	// Ignore the degenerate self-merge.
	oldIDs := make([]string, 0, len(oldUserIDs))
	for _, id := range oldUserIDs {
		if id != "" && id != newUserID {
			oldIDs = append(oldIDs, id)
		}
	}
	if len(oldIDs) == 0 {
		return nil
	}

	allIDs := append(append([]string{}, oldIDs...), newUserID)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete every losing row: for each key the subquery orders the merged
	// identities' rows best-first and keeps only the head.
	_, err = tx.Exec(`
		DELETE FROM submissions s1
		WHERE s1.user_id = ANY($1)
		AND s1.user_id IN (
			SELECT s2.user_id
			FROM submissions s2
			WHERE s2.organization_id = s1.organization_id
				AND s2.item_id = s1.item_id
				AND s2.task_id = s1.task_id
				AND s2.step = s1.step
				AND s2.user_id = ANY($1)
			ORDER BY s2.skipped ASC, s2.date_modified DESC
			OFFSET 1
		)
	`, pq.Array(allIDs))
	if err != nil {
		return fmt.Errorf("failed to delete merged submissions: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE submissions SET user_id = $2
		WHERE user_id = ANY($1)
	`, pq.Array(oldIDs), newUserID)
	if err != nil {
		return fmt.Errorf("failed to reassign submissions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge transaction: %w", err)
	}

	return nil
}
