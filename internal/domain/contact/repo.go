package contact

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Contact) error
	Save(ctx context.Context, c *Contact) error
	ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]*Contact, error)
	ListByResultingCaseID(ctx context.Context, caseID uuid.UUID) ([]*Contact, error)
}
