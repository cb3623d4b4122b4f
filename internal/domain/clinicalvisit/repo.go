package clinicalvisit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *ClinicalVisit) error
	Save(ctx context.Context, v *ClinicalVisit) error
	ListByClinicalCourseID(ctx context.Context, clinicalCourseID uuid.UUID) ([]*ClinicalVisit, error)
}
