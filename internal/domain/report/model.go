package report

import (
	"time"

	"github.com/google/uuid"
)

type ReportingType string

const (
	ReportingDoctor     ReportingType = "DOCTOR"
	ReportingLaboratory ReportingType = "LABORATORY"
	ReportingOther      ReportingType = "OTHER"
)

// SurveillanceReport records an official notification of a case to the
// public health authority.
type SurveillanceReport struct {
	ID                  uuid.UUID     `json:"id"`
	CaseID              uuid.UUID     `json:"case_id"`
	ReportingUserID     uuid.UUID     `json:"reporting_user_id"`
	ReportingType       ReportingType `json:"reporting_type"`
	ReportDate          time.Time     `json:"report_date"`
	ExternalID          string        `json:"external_id,omitempty"`
	NotificationDetails string        `json:"notification_details,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}
