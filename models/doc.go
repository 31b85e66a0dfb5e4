// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - SubmitRequest: task, step, stepIndex, skipped, data
  - LoginRequest: email, previousTokens

# Response Types

Types for JSON responses:

  - SubmitResponse: result
  - LoginResponse: userId, token
  - CountResponse: completed
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Organization: tenant with an optional email filter regex
  - Task: named unit of work with ordered steps
  - Collection: group of items owned by one organization, active for
    zero or more tasks (CollectionTask carries the per-task quota)
  - Item: one unit of crowdsourced work inside a collection
  - SubmissionStep: a worker's recorded outcome for one step
  - SubmissionRecord: latest-step-per-item view row

# Authorization

Organization.IsAuthorized implements the per-organization email gate:
no filter means open to all, and an empty email only satisfies
organizations without a filter.

# Step Defaults

Submissions that name no step fall back to:

	DefaultStep      = "default"
	DefaultStepIndex = 0
*/
package models
