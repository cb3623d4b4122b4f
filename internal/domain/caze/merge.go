package caze

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/disease"
	"github.com/epitrack/epitrack/internal/domain/task"
	"github.com/epitrack/epitrack/internal/domain/user"
)

// Merge consolidates the duplicate case into the lead case: field values,
// the person record, and every dependent entity. The duplicate is
// soft-deleted afterwards. All database steps run in one transaction;
// external notifications stay best-effort outside of it.
func (s *Service) Merge(ctx context.Context, leadID, duplicateID uuid.UUID, actor *user.User) (*Case, error) {
	if actor != nil && !actor.HasRight(user.RightCaseMerge) {
		return nil, ErrAccessDenied
	}
	if leadID == duplicateID {
		return nil, validationErr("mergeSameCase", "a case cannot be merged into itself")
	}
	var lead *Case
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		lead, err = s.cases.GetByID(ctx, leadID)
		if err != nil {
			return err
		}
		duplicate, err := s.cases.GetByID(ctx, duplicateID)
		if err != nil {
			return err
		}
		return s.mergeCaseData(ctx, lead, duplicate, false)
	})
	if err != nil {
		return nil, err
	}
	s.enqueueShareSync(lead.ID)
	return lead, nil
}

// CloneCase creates a linked copy of the case: a new case record receiving
// the source's values and copies of all its dependent entities. Nothing is
// deleted; the clone gets its own epid number.
func (s *Service) CloneCase(ctx context.Context, sourceID uuid.UUID, actor *user.User) (*Case, error) {
	if actor != nil && !actor.HasRight(user.RightCaseEdit) {
		return nil, ErrAccessDenied
	}
	var clone *Case
	err := s.txRunner.RunInTx(ctx, func(ctx context.Context) error {
		source, err := s.cases.GetByID(ctx, sourceID)
		if err != nil {
			return err
		}
		clone = newCaseShell(source.PersonID, source.Disease, source.ReportDate)
		copyCaseValues(clone, source)
		clone.EpidNumber = ""
		epid, err := s.GenerateEpidNumber(ctx, clone)
		if err != nil {
			return err
		}
		clone.EpidNumber = epid
		if err := s.cases.Create(ctx, clone); err != nil {
			return fmt.Errorf("create clone: %w", err)
		}
		return s.mergeCaseData(ctx, clone, source, true)
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// newCaseShell builds an empty case with fresh identities for the record
// itself and its therapy and clinical course anchors.
func newCaseShell(personID uuid.UUID, d disease.Disease, reportDate time.Time) *Case {
	return &Case{
		ID:                      uuid.New(),
		PersonID:                personID,
		Disease:                 d,
		ReportDate:              reportDate,
		CaseClassification:      ClassificationNotClassified,
		SystemClassification:    ClassificationNotClassified,
		InvestigationStatus:     InvestigationPending,
		Outcome:                 OutcomeNoOutcome,
		FollowUpStatus:          NoFollowUp,
		CaseReferenceDefinition: ReferenceNotFulfilled,
		TherapyID:               uuid.New(),
		ClinicalCourseID:        uuid.New(),
	}
}

// mergeCaseData runs the consolidation steps in order. Later steps observe
// the effects of earlier ones; the caller provides the transaction.
func (s *Service) mergeCaseData(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	// 1. Field consolidation.
	copyCaseValues(lead, duplicate)
	if err := s.cases.Save(ctx, lead); err != nil {
		return fmt.Errorf("save lead: %w", err)
	}

	// 2. Person consolidation.
	if lead.PersonID != duplicate.PersonID {
		leadPerson, err := s.persons.GetPerson(ctx, lead.PersonID)
		if err != nil {
			return fmt.Errorf("load lead person: %w", err)
		}
		duplicatePerson, err := s.persons.GetPerson(ctx, duplicate.PersonID)
		if err != nil {
			return fmt.Errorf("load duplicate person: %w", err)
		}
		if err := s.persons.MergePersons(ctx, leadPerson, duplicatePerson); err != nil {
			return fmt.Errorf("merge persons: %w", err)
		}
	}

	// 3. Dependency repointing.
	if err := s.mergeContacts(ctx, lead, duplicate, cloning); err != nil {
		return err
	}
	if err := s.mergeSamples(ctx, lead, duplicate, cloning); err != nil {
		return err
	}
	if err := s.mergeTasks(ctx, lead, duplicate, cloning); err != nil {
		return err
	}
	if err := s.mergeTreatments(ctx, lead, duplicate, cloning); err != nil {
		return err
	}
	if err := s.mergeClinicalVisits(ctx, lead, duplicate, cloning); err != nil {
		return err
	}
	if err := s.mergeVisits(ctx, lead, duplicate, cloning); err != nil {
		return err
	}
	if err := s.mergeDocuments(ctx, lead, duplicate, cloning); err != nil {
		return err
	}
	if err := s.mergeEventParticipants(ctx, lead, duplicate, cloning); err != nil {
		return err
	}
	if err := s.mergeReports(ctx, lead, duplicate, cloning); err != nil {
		return err
	}

	// 4. Exposure invariant repair; 5. activity-as-case propagation.
	repairExposureInvariant(lead)
	propagateActivityAsCase(lead, duplicate)
	if err := s.cases.Save(ctx, lead); err != nil {
		return fmt.Errorf("save lead epi data: %w", err)
	}

	// 6. Disposal.
	if !cloning {
		duplicate.Deleted = true
		if err := s.cases.Save(ctx, duplicate); err != nil {
			return fmt.Errorf("retire duplicate: %w", err)
		}
	}
	return nil
}

func (s *Service) mergeContacts(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	contacts, err := s.contacts.ListByCaseID(ctx, duplicate.ID)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}
	for _, c := range contacts {
		if cloning {
			clone := *c
			clone.ID = uuid.New()
			clone.CaseID = &lead.ID
			if err := s.contacts.Create(ctx, &clone); err != nil {
				return fmt.Errorf("copy contact: %w", err)
			}
			continue
		}
		c.CaseID = &lead.ID
		if err := s.contacts.Save(ctx, c); err != nil {
			return fmt.Errorf("repoint contact: %w", err)
		}
	}
	if cloning {
		return nil
	}
	resulting, err := s.contacts.ListByResultingCaseID(ctx, duplicate.ID)
	if err != nil {
		return fmt.Errorf("load resulting contacts: %w", err)
	}
	for _, c := range resulting {
		c.ResultingCaseID = &lead.ID
		if err := s.contacts.Save(ctx, c); err != nil {
			return fmt.Errorf("repoint resulting contact: %w", err)
		}
	}
	return nil
}

func (s *Service) mergeSamples(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	samples, err := s.samples.ListByCaseID(ctx, duplicate.ID)
	if err != nil {
		return fmt.Errorf("load samples: %w", err)
	}
	for _, smp := range samples {
		if !cloning {
			smp.AssociatedCaseID = lead.ID
			if err := s.samples.SaveSample(ctx, smp); err != nil {
				return fmt.Errorf("repoint sample: %w", err)
			}
			continue
		}
		clone := *smp
		clone.ID = uuid.New()
		clone.AssociatedCaseID = lead.ID
		if err := s.samples.CreateSample(ctx, &clone); err != nil {
			return fmt.Errorf("copy sample: %w", err)
		}
		tests, err := s.samples.ListPathogenTestsBySampleID(ctx, smp.ID)
		if err != nil {
			return fmt.Errorf("load pathogen tests: %w", err)
		}
		for _, t := range tests {
			testClone := *t
			testClone.ID = uuid.New()
			testClone.SampleID = clone.ID
			if err := s.samples.CreatePathogenTest(ctx, &testClone); err != nil {
				return fmt.Errorf("copy pathogen test: %w", err)
			}
		}
		additional, err := s.samples.ListAdditionalTestsBySampleID(ctx, smp.ID)
		if err != nil {
			return fmt.Errorf("load additional tests: %w", err)
		}
		for _, t := range additional {
			testClone := *t
			testClone.ID = uuid.New()
			testClone.SampleID = clone.ID
			if err := s.samples.CreateAdditionalTest(ctx, &testClone); err != nil {
				return fmt.Errorf("copy additional test: %w", err)
			}
		}
	}
	return nil
}

// mergeTasks repoints every task of the duplicate regardless of status, so
// closed tasks never keep referencing a retired case.
func (s *Service) mergeTasks(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	tasks, err := s.tasks.FindBy(ctx, task.Criteria{CaseID: &duplicate.ID})
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	for _, t := range tasks {
		if cloning {
			clone := *t
			clone.ID = uuid.New()
			clone.CaseID = &lead.ID
			if err := s.tasks.Create(ctx, &clone); err != nil {
				return fmt.Errorf("copy task: %w", err)
			}
			continue
		}
		t.CaseID = &lead.ID
		if err := s.tasks.Save(ctx, t); err != nil {
			return fmt.Errorf("repoint task: %w", err)
		}
	}
	return nil
}

func (s *Service) mergeTreatments(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	treatments, err := s.treatments.ListTreatmentsByTherapyID(ctx, duplicate.TherapyID)
	if err != nil {
		return fmt.Errorf("load treatments: %w", err)
	}
	for _, t := range treatments {
		if cloning {
			clone := *t
			clone.ID = uuid.New()
			clone.TherapyID = lead.TherapyID
			if err := s.treatments.CreateTreatment(ctx, &clone); err != nil {
				return fmt.Errorf("copy treatment: %w", err)
			}
			continue
		}
		t.TherapyID = lead.TherapyID
		if err := s.treatments.SaveTreatment(ctx, t); err != nil {
			return fmt.Errorf("repoint treatment: %w", err)
		}
	}
	prescriptions, err := s.treatments.ListPrescriptionsByTherapyID(ctx, duplicate.TherapyID)
	if err != nil {
		return fmt.Errorf("load prescriptions: %w", err)
	}
	for _, p := range prescriptions {
		if cloning {
			clone := *p
			clone.ID = uuid.New()
			clone.TherapyID = lead.TherapyID
			if err := s.treatments.CreatePrescription(ctx, &clone); err != nil {
				return fmt.Errorf("copy prescription: %w", err)
			}
			continue
		}
		p.TherapyID = lead.TherapyID
		if err := s.treatments.SavePrescription(ctx, p); err != nil {
			return fmt.Errorf("repoint prescription: %w", err)
		}
	}
	return nil
}

func (s *Service) mergeClinicalVisits(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	visits, err := s.clinicalVisits.ListByClinicalCourseID(ctx, duplicate.ClinicalCourseID)
	if err != nil {
		return fmt.Errorf("load clinical visits: %w", err)
	}
	for _, v := range visits {
		if cloning {
			clone := *v
			clone.ID = uuid.New()
			clone.ClinicalCourseID = lead.ClinicalCourseID
			if err := s.clinicalVisits.Create(ctx, &clone); err != nil {
				return fmt.Errorf("copy clinical visit: %w", err)
			}
			continue
		}
		v.ClinicalCourseID = lead.ClinicalCourseID
		if err := s.clinicalVisits.Save(ctx, v); err != nil {
			return fmt.Errorf("repoint clinical visit: %w", err)
		}
	}
	return nil
}

// mergeVisits replays every follow-up visit of the duplicate's person
// through the visit save path, pointed at the lead's person and disease, so
// all visit association rules re-apply. A clone shares its person with the
// source, so the visits already associate with it.
func (s *Service) mergeVisits(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	if cloning {
		return nil
	}
	visits, err := s.visits.ListByPersonAndDisease(ctx, duplicate.PersonID, duplicate.Disease)
	if err != nil {
		return fmt.Errorf("load visits: %w", err)
	}
	for _, v := range visits {
		v.PersonID = lead.PersonID
		v.Disease = lead.Disease
		if err := s.visitSvc.SaveVisit(ctx, v); err != nil {
			return fmt.Errorf("repoint visit: %w", err)
		}
	}
	return nil
}

func (s *Service) mergeDocuments(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	docs, err := s.documents.ListRelatedToCase(ctx, duplicate.ID)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	for _, d := range docs {
		if cloning {
			clone := *d
			clone.ID = uuid.New()
			clone.RelatedEntityID = lead.ID
			if err := s.documents.Create(ctx, &clone); err != nil {
				return fmt.Errorf("copy document: %w", err)
			}
			continue
		}
		d.RelatedEntityID = lead.ID
		if err := s.documents.Save(ctx, d); err != nil {
			return fmt.Errorf("repoint document: %w", err)
		}
	}
	return nil
}

func (s *Service) mergeEventParticipants(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	participants, err := s.events.ListByResultingCaseID(ctx, duplicate.ID)
	if err != nil {
		return fmt.Errorf("load event participants: %w", err)
	}
	for _, ep := range participants {
		if cloning {
			clone := *ep
			clone.ID = uuid.New()
			clone.ResultingCaseID = &lead.ID
			if err := s.events.CreateParticipant(ctx, &clone); err != nil {
				return fmt.Errorf("copy event participant: %w", err)
			}
			continue
		}
		ep.ResultingCaseID = &lead.ID
		if err := s.events.SaveParticipant(ctx, ep); err != nil {
			return fmt.Errorf("repoint event participant: %w", err)
		}
	}
	return nil
}

func (s *Service) mergeReports(ctx context.Context, lead, duplicate *Case, cloning bool) error {
	if !cloning {
		if err := s.reports.ReassignCase(ctx, duplicate.ID, lead.ID); err != nil {
			return fmt.Errorf("repoint surveillance reports: %w", err)
		}
		return nil
	}
	reports, err := s.reports.ListByCaseID(ctx, duplicate.ID)
	if err != nil {
		return fmt.Errorf("load surveillance reports: %w", err)
	}
	for _, rep := range reports {
		clone := *rep
		clone.ID = uuid.Nil
		clone.CaseID = lead.ID
		if err := s.reports.Save(ctx, &clone); err != nil {
			return fmt.Errorf("copy surveillance report: %w", err)
		}
	}
	return nil
}

// copyCaseValues fills every unset field of target from source, never
// overwriting a populated target field. The two free-text fields are
// concatenated instead. Exposures are unioned with the target's own first,
// so invariant repair keeps the target's entry when both sides carry a
// probable infection environment.
func copyCaseValues(target, source *Case) {
	fillString(&target.EpidNumber, source.EpidNumber)
	fillString(&target.ExternalID, source.ExternalID)
	fillString(&target.ExternalToken, source.ExternalToken)
	fillString(&target.DiseaseVariant, source.DiseaseVariant)
	fillString(&target.DiseaseDetails, source.DiseaseDetails)
	fillString(&target.FacilityDetails, source.FacilityDetails)

	if target.Disease == "" {
		target.Disease = source.Disease
	}
	if target.CaseClassification == "" || target.CaseClassification == ClassificationNotClassified {
		if source.CaseClassification != "" {
			target.CaseClassification = source.CaseClassification
			target.ClassificationUserID = source.ClassificationUserID
			target.ClassificationDate = source.ClassificationDate
		}
	}
	if target.SystemClassification == "" || target.SystemClassification == ClassificationNotClassified {
		if source.SystemClassification != "" {
			target.SystemClassification = source.SystemClassification
		}
	}
	if target.InvestigationStatus == "" {
		target.InvestigationStatus = source.InvestigationStatus
	}
	if target.Outcome == "" || target.Outcome == OutcomeNoOutcome {
		if source.Outcome != "" {
			target.Outcome = source.Outcome
		}
	}
	if target.FollowUpStatus == "" {
		target.FollowUpStatus = source.FollowUpStatus
	}
	if target.CaseReferenceDefinition == "" {
		target.CaseReferenceDefinition = source.CaseReferenceDefinition
	}
	if target.ReportDate.IsZero() {
		target.ReportDate = source.ReportDate
	}

	fillTime(&target.InvestigatedDate, source.InvestigatedDate)
	fillTime(&target.OutcomeDate, source.OutcomeDate)
	fillTime(&target.FollowUpUntil, source.FollowUpUntil)
	fillUUID(&target.ReportingUserID, source.ReportingUserID)
	fillUUID(&target.ResponsibleRegionID, source.ResponsibleRegionID)
	fillUUID(&target.ResponsibleDistrictID, source.ResponsibleDistrictID)
	fillUUID(&target.ResponsibleCommunityID, source.ResponsibleCommunityID)
	fillUUID(&target.RegionID, source.RegionID)
	fillUUID(&target.DistrictID, source.DistrictID)
	fillUUID(&target.CommunityID, source.CommunityID)
	fillUUID(&target.HealthFacilityID, source.HealthFacilityID)
	fillUUID(&target.SurveillanceOfficerID, source.SurveillanceOfficerID)

	target.AdditionalDetails = concatText(target.AdditionalDetails, source.AdditionalDetails)
	target.FollowUpComment = concatText(target.FollowUpComment, source.FollowUpComment)

	target.Symptoms = mergeSymptoms(target.Symptoms, source.Symptoms)
	target.Hospitalization = mergeHospitalization(target.Hospitalization, source.Hospitalization)
	target.EpiData = mergeEpiData(target.EpiData, source.EpiData)
	if target.MaternalHistory == nil {
		target.MaternalHistory = source.MaternalHistory
	}
	if target.PortHealthInfo == nil {
		target.PortHealthInfo = source.PortHealthInfo
	}
}

func mergeSymptoms(target, source *Symptoms) *Symptoms {
	if source == nil {
		return target
	}
	if target == nil {
		merged := *source
		return &merged
	}
	fillTime(&target.OnsetDate, source.OnsetDate)
	if target.Symptomatic == nil {
		target.Symptomatic = source.Symptomatic
	}
	target.Fever = target.Fever || source.Fever
	target.Cough = target.Cough || source.Cough
	target.Headache = target.Headache || source.Headache
	target.Diarrhea = target.Diarrhea || source.Diarrhea
	target.Vomiting = target.Vomiting || source.Vomiting
	fillString(&target.OtherSymptoms, source.OtherSymptoms)
	return target
}

func mergeHospitalization(target, source *Hospitalization) *Hospitalization {
	if source == nil {
		return target
	}
	if target == nil {
		merged := *source
		return &merged
	}
	if target.AdmittedToHealthFacility == nil {
		target.AdmittedToHealthFacility = source.AdmittedToHealthFacility
	}
	fillTime(&target.AdmissionDate, source.AdmissionDate)
	fillTime(&target.DischargeDate, source.DischargeDate)
	fillTime(&target.IsolationDate, source.IsolationDate)
	return target
}

func mergeEpiData(target, source *EpiData) *EpiData {
	if source == nil {
		return target
	}
	if target == nil {
		merged := *source
		merged.Exposures = append([]Exposure(nil), source.Exposures...)
		return &merged
	}
	target.Exposures = append(target.Exposures, source.Exposures...)
	if target.ExposureDetailsKnown == nil {
		target.ExposureDetailsKnown = source.ExposureDetailsKnown
	}
	if target.ActivityAsCaseDetailsKnown == nil {
		target.ActivityAsCaseDetailsKnown = source.ActivityAsCaseDetailsKnown
	}
	if target.ContactWithSourceCaseKnown == nil {
		target.ContactWithSourceCaseKnown = source.ContactWithSourceCaseKnown
	}
	return target
}

// repairExposureInvariant keeps at most one probable-infection-environment
// exposure: the lowest-index flagged entry survives, every later flag is
// cleared.
func repairExposureInvariant(c *Case) {
	if c.EpiData == nil {
		return
	}
	found := false
	for i := range c.EpiData.Exposures {
		if !c.EpiData.Exposures[i].ProbableInfectionEnvironment {
			continue
		}
		if found {
			c.EpiData.Exposures[i].ProbableInfectionEnvironment = false
		}
		found = true
	}
}

// propagateActivityAsCase marks the lead's activity-as-case details as known
// when the duplicate recorded them; a merge never clears the flag.
func propagateActivityAsCase(lead, duplicate *Case) {
	if duplicate.EpiData == nil || duplicate.EpiData.ActivityAsCaseDetailsKnown == nil ||
		*duplicate.EpiData.ActivityAsCaseDetailsKnown != Yes {
		return
	}
	if lead.EpiData == nil {
		lead.EpiData = &EpiData{}
	}
	yes := Yes
	lead.EpiData.ActivityAsCaseDetailsKnown = &yes
}

func fillString(target *string, source string) {
	if strings.TrimSpace(*target) == "" && source != "" {
		*target = source
	}
}

func fillTime(target **time.Time, source *time.Time) {
	if *target == nil {
		*target = source
	}
}

func fillUUID(target **uuid.UUID, source *uuid.UUID) {
	if *target == nil {
		*target = source
	}
}

func concatText(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	default:
		return a + " " + b
	}
}
