package treatment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateTreatment(ctx context.Context, t *Treatment) error
	SaveTreatment(ctx context.Context, t *Treatment) error
	ListTreatmentsByTherapyID(ctx context.Context, therapyID uuid.UUID) ([]*Treatment, error)

	CreatePrescription(ctx context.Context, p *Prescription) error
	SavePrescription(ctx context.Context, p *Prescription) error
	ListPrescriptionsByTherapyID(ctx context.Context, therapyID uuid.UUID) ([]*Prescription, error)
}
