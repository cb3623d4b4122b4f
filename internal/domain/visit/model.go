// Package visit manages follow-up visits. A visit belongs to a person and a
// disease, not to a single case: all non-deleted cases of that person and
// disease whose follow-up window covers the visit date are associated with it.
package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/disease"
)

type Status string

const (
	StatusCooperative   Status = "COOPERATIVE"
	StatusUncooperative Status = "UNCOOPERATIVE"
	StatusUnavailable   Status = "UNAVAILABLE"
)

type Origin string

const (
	OriginUser     Origin = "USER"
	OriginExternal Origin = "EXTERNAL_JOURNAL"
)

type Visit struct {
	ID            uuid.UUID       `json:"id"`
	PersonID      uuid.UUID       `json:"person_id"`
	Disease       disease.Disease `json:"disease"`
	VisitDateTime time.Time       `json:"visit_date_time"`
	VisitStatus   Status          `json:"visit_status"`
	VisitRemarks  string          `json:"visit_remarks,omitempty"`
	Origin        Origin          `json:"origin"`
	// Symptomatic is nil when no symptom assessment was recorded.
	Symptomatic *bool     `json:"symptomatic,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
