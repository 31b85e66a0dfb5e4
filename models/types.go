package models

import (
	"encoding/json"
	"regexp"
	"time"
)

// Step defaults applied when a submission names no step
const (
	DefaultStep      = "default"
	DefaultStepIndex = 0
)

// Request types

type SubmitRequest struct {
	Task      string          `json:"task"`
	Step      string          `json:"step,omitempty"`
	StepIndex *int            `json:"stepIndex,omitempty"`
	Skipped   bool            `json:"skipped,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type LoginRequest struct {
	Email string `json:"email"`
	// Tokens from earlier anonymous sessions on other devices, so their
	// submission histories fold into the permanent identity too.
	PreviousTokens []string `json:"previousTokens,omitempty"`
}

// Response types

type SubmitResponse struct {
	Result string `json:"result"`
}

type LoginResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type CountResponse struct {
	Completed int `json:"completed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Domain types

type Organization struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	EmailFilterRegex *string `json:"-"`
}

// IsAuthorized reports whether a worker claiming the given email may see
// this organization's items. Organizations without an email filter are open
// to everyone; an empty email only satisfies those.
func (o Organization) IsAuthorized(email string) bool {
	if o.EmailFilterRegex == nil {
		return true
	}
	if email == "" {
		return false
	}
	re, err := regexp.Compile("(?i)" + *o.EmailFilterRegex)
	if err != nil {
		return false
	}
	return re.MatchString(email)
}

type Task struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// CollectionTask is one collection↔task association with its quota.
// A nil SubmissionsNeeded means unlimited.
type CollectionTask struct {
	ID                string `json:"id"`
	SubmissionsNeeded *int   `json:"submissionsNeeded,omitempty"`
}

type Collection struct {
	ID           string           `json:"id"`
	Title        string           `json:"title,omitempty"`
	URL          string           `json:"url,omitempty"`
	Data         json.RawMessage  `json:"data,omitempty"`
	Organization OrganizationRef  `json:"organization"`
	Tasks        []CollectionTask `json:"tasks"`
}

type Item struct {
	ID           string          `json:"id"`
	Data         json.RawMessage `json:"data,omitempty"`
	Organization OrganizationRef `json:"organization"`
	Collection   *Collection     `json:"collection,omitempty"`
	Submission   *ItemSubmission `json:"submission,omitempty"`
}

// ItemSubmission annotates an item with the requesting worker's own steps.
type ItemSubmission struct {
	Steps []SubmissionStep `json:"steps"`
}

type SubmissionStep struct {
	Step         string          `json:"step"`
	StepIndex    int             `json:"stepIndex"`
	Skipped      bool            `json:"skipped,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	DateCreated  time.Time       `json:"dateCreated"`
	DateModified time.Time       `json:"dateModified"`
}

// SubmissionRecord is one row of the latest-step-per-item submissions view.
type SubmissionRecord struct {
	Organization OrganizationRef `json:"organization"`
	Collection   CollectionRef   `json:"collection"`
	Item         ItemSummary     `json:"item"`
	Task         TaskRef         `json:"task"`
	UserID       string          `json:"userId"`
	Step         string          `json:"step"`
	StepIndex    int             `json:"stepIndex"`
	Skipped      bool            `json:"skipped,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	DateCreated  time.Time       `json:"dateCreated"`
	DateModified time.Time       `json:"dateModified"`
}

type ItemSummary struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Reference types used for nesting in responses

type OrganizationRef struct {
	ID string `json:"id"`
}

type CollectionRef struct {
	ID string `json:"id"`
}

type TaskRef struct {
	ID string `json:"id"`
}
