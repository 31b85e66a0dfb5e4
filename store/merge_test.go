// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/danielhkuo/crowdwork/testutil"
)

// setDateModified backdates a row so ordering between merged users is
// deterministic.
func setDateModified(t *testing.T, st *Store, userID, itemID, step string, ts time.Time) {
	t.Helper()
	_, err := st.db.Exec(
		`UPDATE submissions SET date_modified = $1 WHERE user_id = $2 AND item_id = $3 AND step = $4`,
		ts, userID, itemID, step)
	if err != nil {
		t.Fatalf("Failed to backdate submission: %v", err)
	}
}

func stepSubmission(userID, itemID, step string, index int, skipped bool, data string) NewSubmission {
	sub := NewSubmission{
		OrganizationID: "org1",
		ItemID:         itemID,
		UserID:         userID,
		TaskID:         "transcribe",
		Step:           step,
		StepIndex:      &index,
		Skipped:        skipped,
	}
	if data != "" {
		sub.Data = json.RawMessage(data)
	}
	return sub
}

// Worker A completed both steps; worker B skipped both. After merging B
// into A, A owns both completions and B's skips are gone, regardless of
// which rows are newer.
func TestMergeCompletionBeatsSkip(t *testing.T) {
	st := setupCatalog(t)

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	if err := st.RecordSubmission(stepSubmission("userA", "item1", "first", 0, false, `{"text": "X"}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	if err := st.RecordSubmission(stepSubmission("userA", "item1", "second", 1, false, `{"text": "Y"}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	if err := st.RecordSubmission(stepSubmission("userB", "item1", "first", 0, true, ""), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	if err := st.RecordSubmission(stepSubmission("userB", "item1", "second", 1, true, ""), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}

	// B's skips are newer than A's completions; they must still lose.
	setDateModified(t, st, "userA", "item1", "first", base)
	setDateModified(t, st, "userA", "item1", "second", base)
	setDateModified(t, st, "userB", "item1", "first", base.Add(time.Hour))
	setDateModified(t, st, "userB", "item1", "second", base.Add(time.Hour))

	if err := st.MergeUserIDs([]string{"userB"}, "userA"); err != nil {
		t.Fatalf("MergeUserIDs() error = %v", err)
	}

	var total int
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM submissions`).Scan(&total); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("Expected 2 rows after merge, got %d", total)
	}

	records, err := st.SubmissionsForTask("transcribe", "userA", 0)
	if err != nil {
		t.Fatalf("SubmissionsForTask() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 latest-step record for userA, got %d", len(records))
	}
	if records[0].Skipped {
		t.Error("Completion was lost to a skip during merge")
	}

	var data map[string]string
	if err := json.Unmarshal(records[0].Data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if data["text"] != "Y" {
		t.Errorf("Expected latest step data Y, got %q", data["text"])
	}

	var loserRows int
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM submissions WHERE user_id = 'userB'`).Scan(&loserRows); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if loserRows != 0 {
		t.Errorf("Expected no rows left under merged-away id, got %d", loserRows)
	}
}

// Anonymous worker C completed step "first"; account holder A skipped it
// but completed "second". Merging C into A yields A owning C's completed
// "first" and A's own completed "second".
func TestMergePicksPerStepWinners(t *testing.T) {
	st := setupCatalog(t)

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	if err := st.RecordSubmission(stepSubmission("userC", "item1", "first", 0, false, `{"text": "from C"}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	if err := st.RecordSubmission(stepSubmission("userA", "item1", "first", 0, true, ""), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	if err := st.RecordSubmission(stepSubmission("userA", "item1", "second", 1, false, `{"text": "from A"}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}

	setDateModified(t, st, "userC", "item1", "first", base)
	setDateModified(t, st, "userA", "item1", "first", base.Add(time.Hour))
	setDateModified(t, st, "userA", "item1", "second", base.Add(2*time.Hour))

	if err := st.MergeUserIDs([]string{"userC"}, "userA"); err != nil {
		t.Fatalf("MergeUserIDs() error = %v", err)
	}

	rows, err := st.db.Query(
		`SELECT step, skipped, data FROM submissions WHERE user_id = 'userA' ORDER BY step_index`)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	type row struct {
		step    string
		skipped bool
		data    []byte
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.step, &r.skipped, &r.data); err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Rows error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 rows for userA after merge, got %d", len(got))
	}
	if got[0].step != "first" || got[0].skipped {
		t.Errorf("Expected completed 'first' from merged worker, got step=%q skipped=%v",
			got[0].step, got[0].skipped)
	}

	var data map[string]string
	if err := json.Unmarshal(got[0].data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if data["text"] != "from C" {
		t.Errorf("Expected skipping account's row replaced by the completion, got %q", data["text"])
	}
	if got[1].step != "second" || got[1].skipped {
		t.Errorf("Expected completed 'second' preserved, got step=%q skipped=%v",
			got[1].step, got[1].skipped)
	}
}

// Between two completions the newer one wins.
func TestMergeNewerCompletionWins(t *testing.T) {
	st := setupCatalog(t)

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	if err := st.RecordSubmission(completedSubmission("anon", "item1", `{"text": "old"}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	if err := st.RecordSubmission(completedSubmission("account", "item1", `{"text": "new"}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}

	setDateModified(t, st, "anon", "item1", "default", base)
	setDateModified(t, st, "account", "item1", "default", base.Add(time.Hour))

	if err := st.MergeUserIDs([]string{"anon"}, "account"); err != nil {
		t.Fatalf("MergeUserIDs() error = %v", err)
	}

	records, err := st.SubmissionsForTask("transcribe", "account", 0)
	if err != nil {
		t.Fatalf("SubmissionsForTask() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(records))
	}

	var data map[string]string
	if err := json.Unmarshal(records[0].Data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if data["text"] != "new" {
		t.Errorf("Expected newer completion to win, got %q", data["text"])
	}
}

func TestMergeMultipleOldIDs(t *testing.T) {
	st := setupCatalog(t)

	testutil.CreateTestItem(t, st.db, "org1", "coll1", "item2")
	testutil.CreateTestItem(t, st.db, "org1", "coll1", "item3")

	if err := st.RecordSubmission(completedSubmission("anon1", "item1", `{"a": 1}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	if err := st.RecordSubmission(completedSubmission("anon2", "item2", `{"b": 2}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	if err := st.RecordSubmission(completedSubmission("account", "item3", `{"c": 3}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}

	if err := st.MergeUserIDs([]string{"anon1", "anon2"}, "account"); err != nil {
		t.Fatalf("MergeUserIDs() error = %v", err)
	}

	count, err := st.SubmissionCount("transcribe", "account")
	if err != nil {
		t.Fatalf("SubmissionCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 completed items under the account, got %d", count)
	}
}

// Merging the same ids again, or ids with no rows, is a no-op.
func TestMergeIdempotent(t *testing.T) {
	st := setupCatalog(t)

	if err := st.RecordSubmission(completedSubmission("anon", "item1", `{"a": 1}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := st.MergeUserIDs([]string{"anon"}, "account"); err != nil {
			t.Fatalf("MergeUserIDs() #%d error = %v", i, err)
		}
	}
	if err := st.MergeUserIDs([]string{"never-existed"}, "account"); err != nil {
		t.Fatalf("MergeUserIDs() with unknown id error = %v", err)
	}

	count, err := st.SubmissionCount("transcribe", "account")
	if err != nil {
		t.Fatalf("SubmissionCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 completed item, got %d", count)
	}
}

// Merging an id into itself must not delete anything.
func TestMergeSelfIsNoOp(t *testing.T) {
	st := setupCatalog(t)

	if err := st.RecordSubmission(completedSubmission("account", "item1", `{"a": 1}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}

	if err := st.MergeUserIDs([]string{"account"}, "account"); err != nil {
		t.Fatalf("MergeUserIDs() error = %v", err)
	}

	count, err := st.SubmissionCount("transcribe", "account")
	if err != nil {
		t.Fatalf("SubmissionCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Expected self-merge to preserve the row, got count %d", count)
	}
}

// Rows for different tasks on the same item and step never collide
// during a merge.
func TestMergeKeepsDistinctTasks(t *testing.T) {
	st := setupCatalog(t)

	testutil.CreateTestTask(t, st.db, "tag", "Tag the image")
	testutil.LinkCollectionTask(t, st.db, "org1", "coll1", "tag", nil)

	if err := st.RecordSubmission(completedSubmission("account", "item1", `{"a": 1}`), ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}
	tagSub := completedSubmission("account", "item1", `{"b": 2}`)
	tagSub.TaskID = "tag"
	if err := st.RecordSubmission(tagSub, ""); err != nil {
		t.Fatalf("RecordSubmission() error = %v", err)
	}

	if err := st.MergeUserIDs([]string{"anon"}, "account"); err != nil {
		t.Fatalf("MergeUserIDs() error = %v", err)
	}

	var total int
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM submissions WHERE user_id = 'account'`).Scan(&total); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected both task rows to survive the merge, got %d", total)
	}
}
