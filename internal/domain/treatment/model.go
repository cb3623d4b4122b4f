// Package treatment holds treatments and prescriptions. Both key off a
// case's therapy reference, not the case itself.
package treatment

import (
	"time"

	"github.com/google/uuid"
)

type Treatment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	TherapyID         uuid.UUID  `db:"therapy_id" json:"therapy_id"`
	TreatmentType     string     `db:"treatment_type" json:"treatment_type"`
	TreatmentDateTime *time.Time `db:"treatment_date_time" json:"treatment_date_time,omitempty"`
	Dose              *string    `db:"dose" json:"dose,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

type Prescription struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	TherapyID         uuid.UUID  `db:"therapy_id" json:"therapy_id"`
	PrescriptionType  string     `db:"prescription_type" json:"prescription_type"`
	PrescriptionStart *time.Time `db:"prescription_start" json:"prescription_start,omitempty"`
	PrescriptionEnd   *time.Time `db:"prescription_end" json:"prescription_end,omitempty"`
	Frequency         *string    `db:"frequency" json:"frequency,omitempty"`
	Dose              *string    `db:"dose" json:"dose,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}
