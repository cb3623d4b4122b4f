package caze

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/disease"
)

type Repository interface {
	Create(ctx context.Context, c *Case) error
	Save(ctx context.Context, c *Case) error
	// GetByID returns ErrNotFound for unknown or deleted cases.
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)

	ListByPersonID(ctx context.Context, personID uuid.UUID) ([]*Case, error)

	// List returns a page of non-deleted cases ordered by creation date
	// descending, together with the total count.
	List(ctx context.Context, limit, offset int) ([]*Case, int, error)

	// ListEpidNumbersByPrefix returns the epid numbers of all non-deleted
	// cases of the disease whose epid number starts with prefix, excluding
	// the given case. Suffix arithmetic happens in the generator.
	ListEpidNumbersByPrefix(ctx context.Context, prefix string, excludeCaseID uuid.UUID, d disease.Disease) ([]string, error)

	// CountByExternalID counts non-deleted cases sharing the external
	// identifier, excluding the given case.
	CountByExternalID(ctx context.Context, externalID string, excludeCaseID uuid.UUID) (int, error)

	// ListDuplicateCandidates returns the non-deleted cases of the disease
	// reported within the window around reportDate. The similarity matcher
	// narrows this coarse candidate set.
	ListDuplicateCandidates(ctx context.Context, d disease.Disease, reportDate time.Time, window time.Duration) ([]*Case, error)

	// ListForDuplicateReview returns all non-deleted cases ordered by
	// creation date descending, for the merge review workflow.
	ListForDuplicateReview(ctx context.Context, limit int) ([]*Case, error)
}
