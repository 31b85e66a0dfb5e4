// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store implements item assignment, submission recording, and
identity merging against a shared PostgreSQL handle.

# Catalog Reads

Read-only views of the provisioned catalog:

	st := store.New(db)
	tasks, err := st.Tasks()
	orgs, err := st.Organizations()
	colls, err := st.Collections(store.CollectionFilter{TaskID: "transcribe"})
	exists, err := st.ItemExists(orgID, itemID)
	ok, err := st.IsAuthorized(orgID, email)

# Random Assignment

RandomItem offers one eligible item, uniformly at random, for a worker
and task:

	item, err := st.RandomItem(userID, taskID, store.ItemFilter{Email: email})

Eligibility excludes items the worker already acted on (completed or
skipped), items whose per-association quota is full, and organizations
whose email gate rejects the worker. Selection is advisory: the quota is
only enforced against recorded submissions, so racing workers may briefly
be offered the same item.

# Recording Submissions

RecordSubmission performs the atomic conditional upsert:

	err := st.RecordSubmission(store.NewSubmission{...}, email)

A non-skipped row can only be replaced by another non-skipped row; a
skipped row is always replaceable. A skip against a completed step is a
stored no-op that still reports success.

# Identity Merging

MergeUserIDs reconciles anonymous histories into a permanent identity in
one transaction:

	err := st.MergeUserIDs([]string{anonID}, permanentID)

Non-skipped rows beat skipped ones; ties go to the most recently
modified. The merge is idempotent and safe to retry after failure.

# Errors

Callers branch on the sentinel errors with errors.Is:

	store.ErrNotFound
	store.ErrUnauthorized
	store.ErrInvalidSubmission

Anything else is a database failure and safe to retry.
*/
package store
