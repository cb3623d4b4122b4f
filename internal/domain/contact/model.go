// Package contact holds the contact records tracked for a case.
package contact

import (
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/disease"
)

type FollowUpStatus string

const (
	FollowUpOngoing   FollowUpStatus = "FOLLOW_UP"
	FollowUpCompleted FollowUpStatus = "COMPLETED"
	FollowUpCanceled  FollowUpStatus = "CANCELED"
	FollowUpLost      FollowUpStatus = "LOST"
	NoFollowUp        FollowUpStatus = "NO_FOLLOW_UP"
)

type Contact struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	CaseID         *uuid.UUID      `db:"case_id" json:"case_id,omitempty"`
	PersonID       uuid.UUID       `db:"person_id" json:"person_id"`
	Disease        disease.Disease `db:"disease" json:"disease"`
	DiseaseDetails *string         `db:"disease_details" json:"disease_details,omitempty"`
	ReportDate     time.Time       `db:"report_date" json:"report_date"`
	LastContactAt  *time.Time      `db:"last_contact_at" json:"last_contact_at,omitempty"`
	FollowUpStatus FollowUpStatus  `db:"follow_up_status" json:"follow_up_status"`
	FollowUpUntil  *time.Time      `db:"follow_up_until" json:"follow_up_until,omitempty"`
	// ResultingCaseID is set when the contact converted into a case.
	ResultingCaseID *uuid.UUID `db:"resulting_case_id" json:"resulting_case_id,omitempty"`
	Deleted         bool       `db:"deleted" json:"deleted"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
