// Package clinicalvisit holds clinical course visit records attached to a
// case's clinical course. They are distinct from follow-up visits, which
// belong to the person.
package clinicalvisit

import (
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/disease"
)

type ClinicalVisit struct {
	ID               uuid.UUID       `json:"id"`
	ClinicalCourseID uuid.UUID       `json:"clinical_course_id"`
	Disease          disease.Disease `json:"disease"`
	VisitDateTime    time.Time       `json:"visit_date_time"`
	VisitRemarks     string          `json:"visit_remarks,omitempty"`
	VisitingPerson   string          `json:"visiting_person,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
