package document

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Document) error
	Save(ctx context.Context, d *Document) error
	ListRelatedToCase(ctx context.Context, caseID uuid.UUID) ([]*Document, error)
}
