package caze

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RecomputeClassification re-derives the system classification from the
// case's current facts and reports whether anything changed.
//
// The user-facing classification is only touched when the system
// classification itself moved: a recompute that lands on the stored system
// value leaves a manual override untouched, including its user and date
// stamps. A case the user closed as NO_CASE is never reclassified.
func (s *Service) RecomputeClassification(ctx context.Context, c *Case) (bool, error) {
	if !s.cfg.AutomaticClassification {
		return false, nil
	}
	if c.CaseClassification == ClassificationNoCase {
		return false, nil
	}

	tests, err := s.samples.ListPathogenTestsByCaseID(ctx, c.ID)
	if err != nil {
		return false, fmt.Errorf("load pathogen tests: %w", err)
	}
	candidate := s.rules.Classify(CaseFacts{Case: c, PathogenTests: tests})

	if candidate == c.SystemClassification {
		return false, nil
	}
	c.SystemClassification = candidate
	if candidate != c.CaseClassification {
		now := s.now()
		c.CaseClassification = candidate
		c.ClassificationUserID = nil
		c.ClassificationDate = &now
	}
	return true, nil
}

// EvaluateReferenceDefinition recomputes whether the case fulfills the
// official case definition: a confirmed-family classification plus at least
// one positive confirmatory pathogen test. NO_CASE never fulfills it.
func (s *Service) EvaluateReferenceDefinition(ctx context.Context, c *Case) error {
	if !s.cfg.ReferenceDefinition {
		return nil
	}
	fulfilled := false
	if c.CaseClassification != ClassificationNoCase && c.CaseClassification.IsConfirmed() {
		tests, err := s.samples.ListPathogenTestsByCaseID(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load pathogen tests: %w", err)
		}
		fulfilled = hasPositiveLabEvidence(tests)
	}
	if fulfilled {
		c.CaseReferenceDefinition = ReferenceFulfilled
	} else {
		c.CaseReferenceDefinition = ReferenceNotFulfilled
	}
	return nil
}

// OnPathogenTestChanged reruns classification for the case a test result
// was added to or changed on, persisting the case when the outcome moved.
func (s *Service) OnPathogenTestChanged(ctx context.Context, caseID uuid.UUID) error {
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return err
	}
	changed, err := s.RecomputeClassification(ctx, c)
	if err != nil {
		return err
	}
	refBefore := c.CaseReferenceDefinition
	if err := s.EvaluateReferenceDefinition(ctx, c); err != nil {
		return err
	}
	if !changed && c.CaseReferenceDefinition == refBefore {
		return nil
	}
	if err := s.cases.Save(ctx, c); err != nil {
		return err
	}
	if changed {
		s.notifyClassificationChanged(ctx, c)
	}
	return nil
}
