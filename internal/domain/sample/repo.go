package sample

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateSample(ctx context.Context, s *Sample) error
	SaveSample(ctx context.Context, s *Sample) error
	ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]*Sample, error)

	CreatePathogenTest(ctx context.Context, t *PathogenTest) error
	ListPathogenTestsBySampleID(ctx context.Context, sampleID uuid.UUID) ([]*PathogenTest, error)
	ListPathogenTestsByCaseID(ctx context.Context, caseID uuid.UUID) ([]*PathogenTest, error)
	CountPathogenTestsByCaseID(ctx context.Context, caseID uuid.UUID) (int, error)

	CreateAdditionalTest(ctx context.Context, t *AdditionalTest) error
	ListAdditionalTestsBySampleID(ctx context.Context, sampleID uuid.UUID) ([]*AdditionalTest, error)
}
