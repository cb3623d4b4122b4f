package task

import (
	"context"

	"github.com/google/uuid"
)

// Criteria narrows task lookups; nil fields are ignored.
type Criteria struct {
	CaseID *uuid.UUID
	Type   *Type
	Status *Status
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Save(ctx context.Context, t *Task) error
	FindBy(ctx context.Context, criteria Criteria) ([]*Task, error)
	CountBy(ctx context.Context, criteria Criteria) (int, error)
}
