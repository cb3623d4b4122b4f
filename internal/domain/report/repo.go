package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, rep *SurveillanceReport) error
	Save(ctx context.Context, rep *SurveillanceReport) error
	ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]*SurveillanceReport, error)
}
