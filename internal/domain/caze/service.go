package caze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/epitrack/epitrack/internal/config"
	"github.com/epitrack/epitrack/internal/domain/clinicalvisit"
	"github.com/epitrack/epitrack/internal/domain/contact"
	"github.com/epitrack/epitrack/internal/domain/disease"
	"github.com/epitrack/epitrack/internal/domain/document"
	"github.com/epitrack/epitrack/internal/domain/event"
	"github.com/epitrack/epitrack/internal/domain/person"
	"github.com/epitrack/epitrack/internal/domain/region"
	"github.com/epitrack/epitrack/internal/domain/report"
	"github.com/epitrack/epitrack/internal/domain/sample"
	"github.com/epitrack/epitrack/internal/domain/task"
	"github.com/epitrack/epitrack/internal/domain/treatment"
	"github.com/epitrack/epitrack/internal/domain/user"
	"github.com/epitrack/epitrack/internal/domain/visit"
	"github.com/epitrack/epitrack/internal/platform/db"
	"github.com/epitrack/epitrack/internal/platform/notification"
	"github.com/epitrack/epitrack/internal/platform/sharesync"
	"github.com/epitrack/epitrack/internal/platform/surveillance"
)

// Deps wires the engine's collaborators.
type Deps struct {
	Cases          Repository
	Persons        *person.Service
	Contacts       contact.Repository
	Samples        sample.Repository
	Tasks          task.Repository
	Treatments     treatment.Repository
	ClinicalVisits clinicalvisit.Repository
	Visits         visit.Repository
	VisitService   *visit.Service
	Documents      document.Repository
	Events         event.Repository
	Reports        *report.Service
	Districts      region.Repository
	Users          user.Repository

	Rules        ClassificationRules
	DiseaseCfg   *disease.Configuration
	Notifier     notification.Notifier
	Surveillance surveillance.Gateway
	ShareSync    *sharesync.Queue
	TxRunner     db.TxRunner

	Cfg *config.Config
	Log zerolog.Logger
}

// Service is the case engine. All mutating entry points run their database
// work inside a single transaction via TxRunner.
type Service struct {
	cases          Repository
	persons        *person.Service
	contacts       contact.Repository
	samples        sample.Repository
	tasks          task.Repository
	treatments     treatment.Repository
	clinicalVisits clinicalvisit.Repository
	visits         visit.Repository
	visitSvc       *visit.Service
	documents      document.Repository
	events         event.Repository
	reports        *report.Service
	districts      region.Repository
	users          user.Repository

	rules        ClassificationRules
	diseaseCfg   *disease.Configuration
	notifier     notification.Notifier
	surveillance surveillance.Gateway
	shareSync    *sharesync.Queue
	txRunner     db.TxRunner

	matcher Matcher
	cfg     *config.Config
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		cases:          d.Cases,
		persons:        d.Persons,
		contacts:       d.Contacts,
		samples:        d.Samples,
		tasks:          d.Tasks,
		treatments:     d.Treatments,
		clinicalVisits: d.ClinicalVisits,
		visits:         d.Visits,
		visitSvc:       d.VisitService,
		documents:      d.Documents,
		events:         d.Events,
		reports:        d.Reports,
		districts:      d.Districts,
		users:          d.Users,
		rules:          d.Rules,
		diseaseCfg:     d.DiseaseCfg,
		notifier:       d.Notifier,
		surveillance:   d.Surveillance,
		shareSync:      d.ShareSync,
		txRunner:       d.TxRunner,
		matcher: Matcher{
			NameThreshold:    d.Cfg.NameSimilarityThreshold,
			ReportDateWindow: time.Duration(d.Cfg.ReportDateWindowDays) * 24 * time.Hour,
		},
		cfg: d.Cfg,
		log: d.Log,
		now: time.Now,
	}
	if s.visitSvc != nil {
		s.visitSvc.SetOnChanged(s.OnVisitChanged)
	}
	return s
}

func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*Case, error) {
	return s.cases.GetByID(ctx, id)
}

// ListCases returns a page of cases, newest first, with the total count.
func (s *Service) ListCases(ctx context.Context, limit, offset int) ([]*Case, int, error) {
	return s.cases.List(ctx, limit, offset)
}

// SaveCase validates and persists the case, then runs the change
// orchestration: epid number generation, classification, follow-up,
// officer and task maintenance. The whole call is one transaction; the
// deferred share sync is enqueued only after it commits.
func (s *Service) SaveCase(ctx context.Context, c *Case, actor *user.User) error {
	if actor != nil && !actor.HasRight(user.RightCaseEdit) {
		return ErrAccessDenied
	}
	if err := s.validate(ctx, c); err != nil {
		return err
	}

	var old *Case
	if c.ID != uuid.Nil {
		existing, err := s.cases.GetByID(ctx, c.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		old = existing
	}

	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		if old == nil {
			if c.TherapyID == uuid.Nil {
				c.TherapyID = uuid.New()
			}
			if c.ClinicalCourseID == uuid.Nil {
				c.ClinicalCourseID = uuid.New()
			}
			applyCaseDefaults(c)
			if err := s.cases.Create(ctx, c); err != nil {
				return fmt.Errorf("create case: %w", err)
			}
		}
		if err := s.onCaseChanged(ctx, old, c); err != nil {
			return err
		}
		return s.cases.Save(ctx, c)
	})
	if err != nil {
		return err
	}
	s.enqueueShareSync(c.ID)
	return nil
}

// DeleteCase soft-deletes the case. When it was the last case carrying its
// external identifier, the external surveillance tool is notified; that
// call is best-effort and never fails the deletion.
func (s *Service) DeleteCase(ctx context.Context, id uuid.UUID, actor *user.User) error {
	if actor != nil && !actor.HasRight(user.RightCaseDelete) {
		return ErrAccessDenied
	}
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return err
	}
	c.Deleted = true
	if err := s.cases.Save(ctx, c); err != nil {
		return err
	}

	if c.ExternalID != "" && s.surveillance.Enabled() {
		remaining, err := s.cases.CountByExternalID(ctx, c.ExternalID, c.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("case_id", c.ID.String()).
				Msg("could not count cases sharing external id")
			return nil
		}
		if remaining == 0 {
			if err := s.surveillance.NotifyCaseDeleted(ctx, c.ExternalID); err != nil {
				s.log.Warn().Err(err).Str("external_id", c.ExternalID).
					Msg("surveillance tool deletion notification failed")
			}
		}
	}
	return nil
}

// GetSimilarCases returns the stored cases that look like duplicates of the
// given case and person, using the combined exact-identifier and fuzzy
// predicates.
func (s *Service) GetSimilarCases(ctx context.Context, input MatchInput) ([]MatchInput, error) {
	if input.Case == nil || input.Person == nil {
		return nil, validationErr("similarityCriteriaMissing", "case and person criteria are required")
	}
	candidates, err := s.cases.ListDuplicateCandidates(ctx, input.Case.Disease,
		input.Case.ReportDate, s.matcher.ReportDateWindow)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	var matches []MatchInput
	for _, candidate := range candidates {
		if candidate.ID == input.Case.ID {
			continue
		}
		p, err := s.persons.GetPerson(ctx, candidate.PersonID)
		if err != nil {
			return nil, fmt.Errorf("load candidate person: %w", err)
		}
		other := MatchInput{Case: candidate, Person: p}
		if s.matcher.IsDuplicate(input, other) {
			matches = append(matches, other)
		}
	}
	return matches, nil
}

// DuplicatePairs builds the ranked duplicate-review list over the most
// recently created cases.
func (s *Service) DuplicatePairs(ctx context.Context, limit int) ([]DuplicatePair, error) {
	if limit <= 0 {
		limit = 100
	}
	cases, err := s.cases.ListForDuplicateReview(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	inputs := make([]MatchInput, 0, len(cases))
	for _, c := range cases {
		p, err := s.persons.GetPerson(ctx, c.PersonID)
		if err != nil {
			return nil, fmt.Errorf("load person: %w", err)
		}
		inputs = append(inputs, MatchInput{Case: c, Person: p})
	}
	return s.matcher.RankDuplicatePairs(inputs), nil
}

// onCaseChanged maintains the engine-owned fields after a create or edit.
// old is nil for a brand-new case.
func (s *Service) onCaseChanged(ctx context.Context, old, c *Case) error {
	if c.EpidNumber == "" || IsEpidPrefix(c.EpidNumber) {
		if c.ResponsibleDistrictID != nil {
			epid, err := s.GenerateEpidNumber(ctx, c)
			if err != nil {
				return err
			}
			c.EpidNumber = epid
		}
	} else if old == nil || old.EpidNumber != c.EpidNumber {
		taken, err := s.EpidNumberExists(ctx, c.EpidNumber, c.ID, c.Disease)
		if err != nil {
			return err
		}
		if taken {
			return validationErr("epidNumberTaken", "epid number is already in use")
		}
	}

	classificationBefore := c.CaseClassification
	changed, err := s.RecomputeClassification(ctx, c)
	if err != nil {
		return err
	}
	if err := s.EvaluateReferenceDefinition(ctx, c); err != nil {
		return err
	}
	if err := s.updateFollowUp(ctx, c); err != nil {
		return err
	}

	if old == nil {
		if err := s.setResponsibleSurveillanceOfficer(ctx, c); err != nil {
			return err
		}
		if s.cfg.TaskGeneration {
			if err := s.createInvestigationTask(ctx, c); err != nil {
				return err
			}
			if s.diseaseCfg.OnWatchList(c.Disease) {
				if err := s.createActiveSearchTask(ctx, c); err != nil {
					return err
				}
			}
		}
	} else {
		if old.Disease != c.Disease {
			if err := s.propagateDiseaseToContacts(ctx, c); err != nil {
				return err
			}
		}
		if jurisdictionChanged(old, c) {
			if err := s.setResponsibleSurveillanceOfficer(ctx, c); err != nil {
				return err
			}
			if err := s.reassignTasks(ctx, c, true); err != nil {
				return err
			}
		}
		if old.InvestigationStatus != c.InvestigationStatus {
			if err := s.updateInvestigationByStatus(ctx, c); err != nil {
				return err
			}
		}
	}

	if changed && c.CaseClassification != classificationBefore {
		s.notifyClassificationChanged(ctx, c)
	}
	return nil
}

// propagateDiseaseToContacts keeps the case's contacts on the case's
// disease after a disease change.
func (s *Service) propagateDiseaseToContacts(ctx context.Context, c *Case) error {
	contacts, err := s.contacts.ListByCaseID(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}
	for _, ct := range contacts {
		if ct.Disease == c.Disease {
			continue
		}
		ct.Disease = c.Disease
		if err := s.contacts.Save(ctx, ct); err != nil {
			return fmt.Errorf("update contact disease: %w", err)
		}
	}
	return nil
}

func (s *Service) validate(ctx context.Context, c *Case) error {
	if c.Disease == "" {
		return validationErr("diseaseMissing", "disease is required")
	}
	if c.PersonID == uuid.Nil {
		return validationErr("personMissing", "case must reference a person")
	}
	if c.ReportDate.IsZero() {
		return validationErr("reportDateMissing", "report date is required")
	}
	if c.ResponsibleRegionID == nil {
		return validationErr("responsibleRegionMissing", "responsible region is required")
	}
	if c.ResponsibleDistrictID == nil {
		return validationErr("responsibleDistrictMissing", "responsible district is required")
	}
	district, err := s.districts.GetDistrict(ctx, *c.ResponsibleDistrictID)
	if err != nil {
		return fmt.Errorf("load responsible district: %w", err)
	}
	if district.RegionID != *c.ResponsibleRegionID {
		return validationErr("responsibleJurisdictionMismatch",
			"responsible district does not belong to the responsible region")
	}
	if c.HealthFacilityID != nil {
		facility, err := s.districts.GetFacility(ctx, *c.HealthFacilityID)
		if err != nil {
			return fmt.Errorf("load facility: %w", err)
		}
		inResponsible := facility.DistrictID == *c.ResponsibleDistrictID
		inCurrent := c.DistrictID != nil && facility.DistrictID == *c.DistrictID
		if !inResponsible && !inCurrent {
			return validationErr("facilityDistrictMismatch",
				"health facility lies outside the case's districts")
		}
	}
	return nil
}

func applyCaseDefaults(c *Case) {
	if c.CaseClassification == "" {
		c.CaseClassification = ClassificationNotClassified
	}
	if c.SystemClassification == "" {
		c.SystemClassification = ClassificationNotClassified
	}
	if c.InvestigationStatus == "" {
		c.InvestigationStatus = InvestigationPending
	}
	if c.Outcome == "" {
		c.Outcome = OutcomeNoOutcome
	}
	if c.FollowUpStatus == "" {
		c.FollowUpStatus = NoFollowUp
	}
	if c.CaseReferenceDefinition == "" {
		c.CaseReferenceDefinition = ReferenceNotFulfilled
	}
}

// notifyClassificationChanged tells the responsible region's supervisors
// about the new classification. Delivery failures are logged, never
// propagated.
func (s *Service) notifyClassificationChanged(ctx context.Context, c *Case) {
	if s.notifier == nil || c.ResponsibleRegionID == nil {
		return
	}
	supervisors, err := s.users.ListByRegions(ctx, []uuid.UUID{*c.ResponsibleRegionID}, supervisorRoles...)
	if err != nil {
		s.log.Warn().Err(err).Str("case_id", c.ID.String()).
			Msg("could not load supervisors for classification notification")
		return
	}
	if len(supervisors) == 0 {
		return
	}
	recipients := make([]notification.Recipient, 0, len(supervisors))
	for _, u := range supervisors {
		recipients = append(recipients, notification.Recipient{
			Name: u.Name, Email: u.Email, Phone: u.Phone,
		})
	}
	subject := "Case classification changed"
	body := fmt.Sprintf("The classification of case %s (%s) changed to %s.",
		c.EpidNumber, c.Disease, c.CaseClassification)
	if err := s.notifier.Notify(ctx, recipients, subject, body); err != nil {
		s.log.Warn().Err(err).Str("case_id", c.ID.String()).
			Msg("classification change notification failed")
	}
}

func (s *Service) enqueueShareSync(caseID uuid.UUID) {
	if s.shareSync == nil || !s.cfg.ShareSyncEnabled {
		return
	}
	s.shareSync.Enqueue(caseID)
}
