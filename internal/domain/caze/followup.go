package caze

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/visit"
)

// FollowUpVisitResult is the per-day outcome shown in the follow-up matrix.
type FollowUpVisitResult string

const (
	VisitResultNotPerformed   FollowUpVisitResult = "NOT_PERFORMED"
	VisitResultUnavailable    FollowUpVisitResult = "UNAVAILABLE"
	VisitResultUncooperative  FollowUpVisitResult = "UNCOOPERATIVE"
	VisitResultNotSymptomatic FollowUpVisitResult = "NOT_SYMPTOMATIC"
	VisitResultSymptomatic    FollowUpVisitResult = "SYMPTOMATIC"
)

// FollowUpDetail is one row of the follow-up list: a case and its visit
// results for each day of the requested window, oldest day first.
type FollowUpDetail struct {
	CaseID        uuid.UUID             `json:"case_id"`
	PersonID      uuid.UUID             `json:"person_id"`
	FollowUpUntil *time.Time            `json:"follow_up_until,omitempty"`
	VisitResults  []FollowUpVisitResult `json:"visit_results"`
}

// FollowUpStartDate is the earlier of symptom onset and report date; it is
// never after the report date.
func FollowUpStartDate(c *Case) time.Time {
	start := c.ReportDate
	if onset := c.OnsetDate(); onset != nil && onset.Before(start) {
		start = *onset
	}
	return start
}

// CalculateFollowUpUntil computes the end of the follow-up period: start
// plus the disease duration, never shrunk below a pinned overwrite date,
// stretched to cover any later visit, and pushed out one more day when the
// last visit fell on the end date without being cooperative. The result is
// never before start.
func CalculateFollowUpUntil(start time.Time, durationDays int, visits []*visit.Visit, overwrite *time.Time) time.Time {
	until := start.AddDate(0, 0, durationDays)
	if overwrite != nil && overwrite.After(until) {
		until = *overwrite
	}
	var last *visit.Visit
	for _, v := range visits {
		if last == nil || v.VisitDateTime.After(last.VisitDateTime) {
			last = v
		}
	}
	if last != nil {
		if last.VisitDateTime.After(until) {
			until = last.VisitDateTime
		}
		if last.VisitStatus != visit.StatusCooperative && sameDay(last.VisitDateTime, until) {
			until = until.AddDate(0, 0, 1)
		}
	}
	if until.Before(start) {
		return start
	}
	return until
}

// updateFollowUp recomputes the case's follow-up status and until date. A
// pinned until date is kept as long as follow-up applies; diseases without a
// follow-up period clear both fields.
func (s *Service) updateFollowUp(ctx context.Context, c *Case) error {
	duration := s.diseaseCfg.FollowUpDuration(c.Disease)
	if duration <= 0 {
		c.FollowUpStatus = NoFollowUp
		c.FollowUpUntil = nil
		return nil
	}
	if c.FollowUpStatus == FollowUpCanceled || c.FollowUpStatus == FollowUpLost {
		return nil
	}

	visits, err := s.visits.ListByPersonAndDisease(ctx, c.PersonID, c.Disease)
	if err != nil {
		return fmt.Errorf("load visits: %w", err)
	}
	start := FollowUpStartDate(c)
	var overwrite *time.Time
	if c.OverwriteFollowUpUntil {
		overwrite = c.FollowUpUntil
	}
	until := CalculateFollowUpUntil(start, duration, visits, overwrite)
	c.FollowUpUntil = &until

	if c.FollowUpStatus == "" || c.FollowUpStatus == NoFollowUp {
		c.FollowUpStatus = FollowUpOngoing
	}
	if c.FollowUpStatus == FollowUpOngoing && s.now().After(endOfDay(until)) {
		c.FollowUpStatus = FollowUpCompleted
	}
	return nil
}

// FollowUpList builds the per-day visit-result matrix for the case over a
// window of interval days ending today. When several visits fall on one
// day, the last one is authoritative.
func (s *Service) FollowUpList(ctx context.Context, caseID uuid.UUID, interval int) (*FollowUpDetail, error) {
	if interval <= 0 {
		return nil, validationErr("followUpIntervalInvalid", "interval must be positive")
	}
	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	visits, err := s.visits.ListByPersonAndDisease(ctx, c.PersonID, c.Disease)
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}

	windowEnd := startOfDay(s.now())
	windowStart := windowEnd.AddDate(0, 0, -(interval - 1))

	results := make([]FollowUpVisitResult, interval)
	for i := range results {
		results[i] = VisitResultNotPerformed
	}
	latest := make([]*visit.Visit, interval)
	for _, v := range visits {
		offset := int(startOfDay(v.VisitDateTime).Sub(windowStart).Hours() / 24)
		if offset < 0 || offset >= interval {
			continue
		}
		if latest[offset] == nil || !v.VisitDateTime.Before(latest[offset].VisitDateTime) {
			latest[offset] = v
			results[offset] = resultOfVisit(v)
		}
	}
	return &FollowUpDetail{
		CaseID:        c.ID,
		PersonID:      c.PersonID,
		FollowUpUntil: c.FollowUpUntil,
		VisitResults:  results,
	}, nil
}

func resultOfVisit(v *visit.Visit) FollowUpVisitResult {
	switch v.VisitStatus {
	case visit.StatusUnavailable:
		return VisitResultUnavailable
	case visit.StatusUncooperative:
		return VisitResultUncooperative
	}
	if v.Symptomatic != nil {
		if *v.Symptomatic {
			return VisitResultSymptomatic
		}
		return VisitResultNotSymptomatic
	}
	// A cooperative external journal entry without a symptom assessment
	// tells us nothing about the day.
	if v.Origin == visit.OriginExternal {
		return VisitResultNotPerformed
	}
	return VisitResultNotSymptomatic
}

// OnVisitChanged re-runs follow-up scheduling for every non-deleted case of
// the visit's person and disease whose window the visit may affect. Wired
// as the visit service's change hook.
func (s *Service) OnVisitChanged(ctx context.Context, v *visit.Visit) error {
	cases, err := s.cases.ListByPersonID(ctx, v.PersonID)
	if err != nil {
		return fmt.Errorf("load person cases: %w", err)
	}
	for _, c := range cases {
		if c.Disease != v.Disease {
			continue
		}
		before := c.FollowUpUntil
		status := c.FollowUpStatus
		if err := s.updateFollowUp(ctx, c); err != nil {
			return err
		}
		if status == c.FollowUpStatus && timesEqual(before, c.FollowUpUntil) {
			continue
		}
		if err := s.cases.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
