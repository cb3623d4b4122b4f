package report

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrCaseRequired = errors.New("surveillance report requires a case")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Save(ctx context.Context, rep *SurveillanceReport) error {
	if rep.CaseID == uuid.Nil {
		return ErrCaseRequired
	}
	if rep.ID == uuid.Nil {
		return s.repo.Create(ctx, rep)
	}
	return s.repo.Save(ctx, rep)
}

func (s *Service) ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]*SurveillanceReport, error) {
	return s.repo.ListByCaseID(ctx, caseID)
}

// ReassignCase moves all reports of one case onto another. Used when cases
// are merged so official notifications stay attached to the surviving case.
// Each report goes through the full save path so report invariants re-apply.
func (s *Service) ReassignCase(ctx context.Context, fromCaseID, toCaseID uuid.UUID) error {
	reports, err := s.repo.ListByCaseID(ctx, fromCaseID)
	if err != nil {
		return err
	}
	for _, rep := range reports {
		rep.CaseID = toCaseID
		if err := s.Save(ctx, rep); err != nil {
			return err
		}
	}
	return nil
}
