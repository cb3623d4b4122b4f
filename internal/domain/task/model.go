// Package task holds the work items assigned to surveillance staff for a
// case. Task assignment must always respect the case's jurisdiction.
package task

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeCaseInvestigation    Type = "CASE_INVESTIGATION"
	TypeActiveSearch         Type = "ACTIVE_SEARCH_FOR_OTHER_CASES"
	TypeSampleCollection     Type = "SAMPLE_COLLECTION"
	TypeContactInvestigation Type = "CONTACT_INVESTIGATION"
	TypeOther                Type = "OTHER"
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusDone          Status = "DONE"
	StatusRemoved       Status = "REMOVED"
	StatusNotExecutable Status = "NOT_EXECUTABLE"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityNormal Priority = "NORMAL"
	PriorityLow    Priority = "LOW"
)

type Task struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	CaseID           *uuid.UUID `db:"case_id" json:"case_id,omitempty"`
	Type             Type       `db:"type" json:"type"`
	Status           Status     `db:"status" json:"status"`
	Priority         Priority   `db:"priority" json:"priority"`
	AssigneeUserID   *uuid.UUID `db:"assignee_user_id" json:"assignee_user_id,omitempty"`
	CreatorUserID    *uuid.UUID `db:"creator_user_id" json:"creator_user_id,omitempty"`
	SuggestedStart   *time.Time `db:"suggested_start" json:"suggested_start,omitempty"`
	DueDate          *time.Time `db:"due_date" json:"due_date,omitempty"`
	StatusChangeDate *time.Time `db:"status_change_date" json:"status_change_date,omitempty"`
	Comment          *string    `db:"comment" json:"comment,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
