package visit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Service persists visits and notifies the case layer so follow-up state of
// the person's cases can be recomputed. The hook is set after construction to
// keep the dependency pointing one way.
type Service struct {
	repo Repository
	log  zerolog.Logger

	onChanged func(ctx context.Context, v *Visit) error
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetOnChanged registers the callback invoked after a visit is created or
// updated. Must be called during wiring, before the service handles requests.
func (s *Service) SetOnChanged(fn func(ctx context.Context, v *Visit) error) {
	s.onChanged = fn
}

func (s *Service) SaveVisit(ctx context.Context, v *Visit) error {
	var err error
	if existing, getErr := s.repo.GetByID(ctx, v.ID); getErr == nil && existing != nil {
		err = s.repo.Save(ctx, v)
	} else {
		err = s.repo.Create(ctx, v)
	}
	if err != nil {
		return fmt.Errorf("save visit: %w", err)
	}
	if s.onChanged != nil {
		if err := s.onChanged(ctx, v); err != nil {
			return fmt.Errorf("visit change propagation: %w", err)
		}
	}
	return nil
}
