package caze

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/task"
	"github.com/epitrack/epitrack/internal/domain/user"
)

var supervisorRoles = []user.Role{
	user.RoleSurveillanceSupervisor,
	user.RoleAdminSupervisor,
	user.RoleCaseSupervisor,
	user.RoleContactSupervisor,
}

// jurisdictionChanged reports whether any jurisdiction-relevant field
// differs between the case's prior and new state.
func jurisdictionChanged(old, updated *Case) bool {
	return !idsEqual(old.ResponsibleRegionID, updated.ResponsibleRegionID) ||
		!idsEqual(old.ResponsibleDistrictID, updated.ResponsibleDistrictID) ||
		!idsEqual(old.ResponsibleCommunityID, updated.ResponsibleCommunityID) ||
		!idsEqual(old.RegionID, updated.RegionID) ||
		!idsEqual(old.DistrictID, updated.DistrictID) ||
		!idsEqual(old.CommunityID, updated.CommunityID) ||
		!idsEqual(old.HealthFacilityID, updated.HealthFacilityID)
}

func idsEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// setResponsibleSurveillanceOfficer re-derives the case's surveillance
// officer for its responsible district: the officer associated with the
// facility's informant when one exists there, otherwise a random officer of
// the district. The case may legitimately end up without one.
func (s *Service) setResponsibleSurveillanceOfficer(ctx context.Context, c *Case) error {
	if c.ResponsibleDistrictID == nil {
		c.SurveillanceOfficerID = nil
		return nil
	}
	if c.SurveillanceOfficerID != nil {
		officer, err := s.users.GetByID(ctx, *c.SurveillanceOfficerID)
		if err == nil && officer != nil && officer.Active &&
			officer.DistrictID != nil && *officer.DistrictID == *c.ResponsibleDistrictID {
			return nil
		}
	}
	c.SurveillanceOfficerID = nil

	if c.HealthFacilityID != nil {
		informants, err := s.users.InformantsOfFacility(ctx, *c.HealthFacilityID)
		if err != nil {
			return fmt.Errorf("facility informants: %w", err)
		}
		for _, informant := range informants {
			if informant.AssociatedOfficerID == nil {
				continue
			}
			officer, err := s.users.GetByID(ctx, *informant.AssociatedOfficerID)
			if err != nil {
				return fmt.Errorf("informant officer: %w", err)
			}
			if officer != nil && officer.Active && officer.DistrictID != nil &&
				*officer.DistrictID == *c.ResponsibleDistrictID {
				c.SurveillanceOfficerID = &officer.ID
				return nil
			}
		}
	}

	officer, err := s.users.RandomByDistrict(ctx, *c.ResponsibleDistrictID, user.RoleSurveillanceOfficer)
	if err != nil {
		return fmt.Errorf("random district officer: %w", err)
	}
	if officer != nil {
		c.SurveillanceOfficerID = &officer.ID
	}
	return nil
}

// caseAssignee walks the deterministic fallback chain for a task on the
// case: the case's surveillance officer, then a random officer of the
// responsible district, then of the current district, then the reporting
// user when they hold a supervisor role, then a random supervisor of the
// responsible region, then of the current region. Returns nil when the
// whole chain comes up empty.
func (s *Service) caseAssignee(ctx context.Context, c *Case) (*user.User, error) {
	if c.SurveillanceOfficerID != nil {
		officer, err := s.users.GetByID(ctx, *c.SurveillanceOfficerID)
		if err != nil {
			return nil, err
		}
		if officer != nil && officer.Active {
			return officer, nil
		}
	}
	if c.ResponsibleDistrictID != nil {
		officer, err := s.users.RandomByDistrict(ctx, *c.ResponsibleDistrictID, user.RoleSurveillanceOfficer)
		if err != nil || officer != nil {
			return officer, err
		}
	}
	if c.DistrictID != nil {
		officer, err := s.users.RandomByDistrict(ctx, *c.DistrictID, user.RoleSurveillanceOfficer)
		if err != nil || officer != nil {
			return officer, err
		}
	}
	if c.ReportingUserID != nil {
		reporter, err := s.users.GetByID(ctx, *c.ReportingUserID)
		if err != nil {
			return nil, err
		}
		if reporter != nil && reporter.Active && reporter.HasRole(supervisorRoles...) {
			return reporter, nil
		}
	}
	if c.ResponsibleRegionID != nil {
		supervisor, err := s.users.RandomByRegion(ctx, *c.ResponsibleRegionID, supervisorRoles...)
		if err != nil || supervisor != nil {
			return supervisor, err
		}
	}
	if c.RegionID != nil {
		supervisor, err := s.users.RandomByRegion(ctx, *c.RegionID, supervisorRoles...)
		if err != nil || supervisor != nil {
			return supervisor, err
		}
	}
	return nil, nil
}

// reassignTasks recomputes the assignee of every pending task of the case
// whose current assignee no longer holds jurisdiction, or of all pending
// tasks when forced. A task with no eligible candidate is left unassigned
// and logged as a warning, never an error.
func (s *Service) reassignTasks(ctx context.Context, c *Case, forced bool) error {
	pending := task.StatusPending
	tasks, err := s.tasks.FindBy(ctx, task.Criteria{CaseID: &c.ID, Status: &pending})
	if err != nil {
		return fmt.Errorf("load pending tasks: %w", err)
	}
	for _, t := range tasks {
		if !forced && t.AssigneeUserID != nil {
			assignee, err := s.users.GetByID(ctx, *t.AssigneeUserID)
			if err != nil {
				return err
			}
			if assignee != nil && s.holdsJurisdiction(assignee, c) {
				continue
			}
		}
		assignee, err := s.caseAssignee(ctx, c)
		if err != nil {
			return err
		}
		if assignee == nil {
			t.AssigneeUserID = nil
			s.log.Warn().
				Str("task_id", t.ID.String()).
				Str("case_id", c.ID.String()).
				Msg("no jurisdictioned assignee found, task left unassigned")
		} else {
			t.AssigneeUserID = &assignee.ID
		}
		if err := s.tasks.Save(ctx, t); err != nil {
			return fmt.Errorf("save task: %w", err)
		}
	}
	return nil
}

// holdsJurisdiction reports whether the user may keep a task on the case:
// national users always, otherwise a district or region shared with the
// case's responsible or current jurisdiction.
func (s *Service) holdsJurisdiction(u *user.User, c *Case) bool {
	if !u.Active {
		return false
	}
	if u.HasRole(user.RoleNationalUser, user.RoleAdmin) {
		return true
	}
	if u.DistrictID != nil &&
		(idsEqual(u.DistrictID, c.ResponsibleDistrictID) || idsEqual(u.DistrictID, c.DistrictID)) {
		return true
	}
	if u.RegionID != nil &&
		(idsEqual(u.RegionID, c.ResponsibleRegionID) || idsEqual(u.RegionID, c.RegionID)) {
		return true
	}
	return false
}

// createInvestigationTask opens the investigation task every new case gets
// when task generation is enabled.
func (s *Service) createInvestigationTask(ctx context.Context, c *Case) error {
	return s.createCaseTask(ctx, c, task.TypeCaseInvestigation, task.PriorityNormal, 2)
}

// createActiveSearchTask opens the unconditional active-search task for new
// cases of a watch-list disease.
func (s *Service) createActiveSearchTask(ctx context.Context, c *Case) error {
	return s.createCaseTask(ctx, c, task.TypeActiveSearch, task.PriorityHigh, 1)
}

func (s *Service) createCaseTask(ctx context.Context, c *Case, taskType task.Type, priority task.Priority, dueDays int) error {
	assignee, err := s.caseAssignee(ctx, c)
	if err != nil {
		return err
	}
	now := s.now()
	due := now.AddDate(0, 0, dueDays)
	t := &task.Task{
		CaseID:         &c.ID,
		Type:           taskType,
		Status:         task.StatusPending,
		Priority:       priority,
		CreatorUserID:  c.ReportingUserID,
		SuggestedStart: &now,
		DueDate:        &due,
	}
	if assignee == nil {
		s.log.Warn().
			Str("case_id", c.ID.String()).
			Str("task_type", string(taskType)).
			Msg("no jurisdictioned assignee found, task created unassigned")
	} else {
		t.AssigneeUserID = &assignee.ID
	}
	return s.tasks.Create(ctx, t)
}

// updateInvestigationByStatus aligns the case's investigation tasks after a
// user changed the investigation status directly: closing the investigation
// closes its pending tasks, reopening it clears the investigated date.
func (s *Service) updateInvestigationByStatus(ctx context.Context, c *Case) error {
	switch c.InvestigationStatus {
	case InvestigationPending:
		c.InvestigatedDate = nil
		return nil
	case InvestigationDone, InvestigationDiscarded:
		now := s.now()
		c.InvestigatedDate = &now
	}

	invType := task.TypeCaseInvestigation
	pending := task.StatusPending
	tasks, err := s.tasks.FindBy(ctx, task.Criteria{CaseID: &c.ID, Type: &invType, Status: &pending})
	if err != nil {
		return fmt.Errorf("load investigation tasks: %w", err)
	}
	for _, t := range tasks {
		now := s.now()
		t.Status = task.StatusDone
		t.StatusChangeDate = &now
		if err := s.tasks.Save(ctx, t); err != nil {
			return fmt.Errorf("close investigation task: %w", err)
		}
	}
	return nil
}

// UpdateInvestigationByTask propagates an investigation task transition
// back onto its case. A task returning to pending on a case whose
// investigation is already closed is a state the engine cannot reconcile.
func (s *Service) UpdateInvestigationByTask(ctx context.Context, t *task.Task) error {
	if t.CaseID == nil || t.Type != task.TypeCaseInvestigation {
		return nil
	}
	c, err := s.cases.GetByID(ctx, *t.CaseID)
	if err != nil {
		return err
	}
	switch t.Status {
	case task.StatusDone:
		now := s.now()
		c.InvestigationStatus = InvestigationDone
		c.InvestigatedDate = &now
	case task.StatusPending:
		if c.InvestigationStatus != InvestigationPending {
			return fmt.Errorf("%w: pending investigation task %s on case %s with investigation %s",
				ErrDataIntegrity, t.ID, c.ID, c.InvestigationStatus)
		}
		return nil
	case task.StatusRemoved, task.StatusNotExecutable:
		invType := task.TypeCaseInvestigation
		pending := task.StatusPending
		open, err := s.tasks.CountBy(ctx, task.Criteria{CaseID: &c.ID, Type: &invType, Status: &pending})
		if err != nil {
			return err
		}
		if open > 0 {
			return nil
		}
		c.InvestigationStatus = InvestigationDiscarded
		now := s.now()
		c.InvestigatedDate = &now
	default:
		return nil
	}
	return s.cases.Save(ctx, c)
}
