package visit

import (
	"context"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/disease"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	Save(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	// ListByPersonAndDisease returns the person's visits for the disease
	// ordered by visit date ascending.
	ListByPersonAndDisease(ctx context.Context, personID uuid.UUID, d disease.Disease) ([]*Visit, error)
}
