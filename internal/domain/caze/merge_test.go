package caze

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/clinicalvisit"
	"github.com/epitrack/epitrack/internal/domain/contact"
	"github.com/epitrack/epitrack/internal/domain/disease"
	"github.com/epitrack/epitrack/internal/domain/document"
	"github.com/epitrack/epitrack/internal/domain/event"
	"github.com/epitrack/epitrack/internal/domain/person"
	"github.com/epitrack/epitrack/internal/domain/report"
	"github.com/epitrack/epitrack/internal/domain/sample"
	"github.com/epitrack/epitrack/internal/domain/task"
	"github.com/epitrack/epitrack/internal/domain/treatment"
	"github.com/epitrack/epitrack/internal/domain/user"
	"github.com/epitrack/epitrack/internal/domain/visit"
)

func mergeActor(env *testEnv) *user.User {
	return env.users.add(&user.User{Name: "merger", Roles: []user.Role{user.RoleSurveillanceSupervisor}})
}

// seedDependents attaches one record of every dependent type to the case.
func seedDependents(env *testEnv, c *Case) {
	ctx := context.Background()
	_ = env.contacts.Create(ctx, &contact.Contact{CaseID: &c.ID, PersonID: uuid.New(), Disease: c.Disease, ReportDate: c.ReportDate})
	_ = env.contacts.Create(ctx, &contact.Contact{PersonID: uuid.New(), Disease: c.Disease, ReportDate: c.ReportDate, ResultingCaseID: &c.ID})
	smp := &sample.Sample{AssociatedCaseID: c.ID, SampleDateTime: c.ReportDate}
	_ = env.samples.CreateSample(ctx, smp)
	_ = env.samples.CreatePathogenTest(ctx, &sample.PathogenTest{SampleID: smp.ID, TestType: sample.TestPCR, TestResult: sample.ResultPending})
	_ = env.samples.CreateAdditionalTest(ctx, &sample.AdditionalTest{SampleID: smp.ID})
	_ = env.tasks.Create(ctx, &task.Task{CaseID: &c.ID, Type: task.TypeCaseInvestigation, Status: task.StatusPending})
	_ = env.treatments.CreateTreatment(ctx, &treatment.Treatment{TherapyID: c.TherapyID, TreatmentType: "ORAL_REHYDRATION"})
	_ = env.treatments.CreatePrescription(ctx, &treatment.Prescription{TherapyID: c.TherapyID, PrescriptionType: "ANTIBIOTICS"})
	_ = env.clinVisits.Create(ctx, &clinicalvisit.ClinicalVisit{ClinicalCourseID: c.ClinicalCourseID, Disease: c.Disease, VisitDateTime: c.ReportDate})
	_ = env.visits.Create(ctx, &visit.Visit{PersonID: c.PersonID, Disease: c.Disease, VisitDateTime: c.ReportDate, VisitStatus: visit.StatusCooperative, Origin: visit.OriginUser})
	_ = env.documents.Create(ctx, &document.Document{Name: "doc.pdf", RelatedEntityType: document.RelatedCase, RelatedEntityID: c.ID})
	_ = env.events.CreateParticipant(ctx, &event.EventParticipant{EventID: uuid.New(), PersonID: c.PersonID, ResultingCaseID: &c.ID})
	_ = env.reports.Create(ctx, &report.SurveillanceReport{CaseID: c.ID, ReportingUserID: uuid.New(), ReportDate: c.ReportDate})
}

// countDependents tallies every dependent record attached to the case.
func countDependents(env *testEnv, c *Case) map[string]int {
	ctx := context.Background()
	contacts, _ := env.contacts.ListByCaseID(ctx, c.ID)
	resulting, _ := env.contacts.ListByResultingCaseID(ctx, c.ID)
	samples, _ := env.samples.ListByCaseID(ctx, c.ID)
	tests, _ := env.samples.ListPathogenTestsByCaseID(ctx, c.ID)
	pending := task.StatusPending
	tasks, _ := env.tasks.FindBy(ctx, task.Criteria{CaseID: &c.ID, Status: &pending})
	treatments, _ := env.treatments.ListTreatmentsByTherapyID(ctx, c.TherapyID)
	prescriptions, _ := env.treatments.ListPrescriptionsByTherapyID(ctx, c.TherapyID)
	clinVisits, _ := env.clinVisits.ListByClinicalCourseID(ctx, c.ClinicalCourseID)
	visits, _ := env.visits.ListByPersonAndDisease(ctx, c.PersonID, c.Disease)
	docs, _ := env.documents.ListRelatedToCase(ctx, c.ID)
	participants, _ := env.events.ListByResultingCaseID(ctx, c.ID)
	reports, _ := env.reports.ListByCaseID(ctx, c.ID)
	return map[string]int{
		"contacts":          len(contacts),
		"resulting":         len(resulting),
		"samples":           len(samples),
		"pathogen tests":    len(tests),
		"pending tasks":     len(tasks),
		"treatments":        len(treatments),
		"prescriptions":     len(prescriptions),
		"clinical visits":   len(clinVisits),
		"follow-up visits":  len(visits),
		"documents":         len(docs),
		"event involvement": len(participants),
		"reports":           len(reports),
	}
}

func TestMergeConservesDependents(t *testing.T) {
	env := newTestEnv()
	district := env.regions.addDistrict("REG", "DIST01")
	actor := mergeActor(env)
	reportDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	lead := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "John", LastName: "Smith"})
	duplicate := env.addCase(disease.Cholera, district, reportDate.AddDate(0, 0, 2), &person.Person{FirstName: "Jon", LastName: "Smith"})
	seedDependents(env, lead)
	seedDependents(env, duplicate)

	before := countDependents(env, lead)
	beforeDup := countDependents(env, duplicate)

	merged, err := env.svc.Merge(context.Background(), lead.ID, duplicate.ID, actor)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.ID != lead.ID {
		t.Fatalf("merge returned case %s, want lead %s", merged.ID, lead.ID)
	}

	after := countDependents(env, lead)
	for kind, n := range before {
		if want := n + beforeDup[kind]; after[kind] != want {
			t.Errorf("%s after merge = %d, want %d (lead %d + duplicate %d)", kind, after[kind], want, n, beforeDup[kind])
		}
	}

	if !duplicate.Deleted {
		t.Error("duplicate not soft-deleted after merge")
	}
	if _, err := env.cases.GetByID(context.Background(), duplicate.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("duplicate lookup after merge = %v, want ErrNotFound", err)
	}
}

func TestMergeRepointsClosedTasks(t *testing.T) {
	env := newTestEnv()
	district := env.regions.addDistrict("REG", "DIST01")
	actor := mergeActor(env)
	reportDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	lead := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "John", LastName: "Smith"})
	duplicate := env.addCase(disease.Cholera, district, reportDate.AddDate(0, 0, 2), &person.Person{FirstName: "Jon", LastName: "Smith"})
	_ = env.tasks.Create(ctx, &task.Task{CaseID: &duplicate.ID, Type: task.TypeCaseInvestigation, Status: task.StatusDone})
	_ = env.tasks.Create(ctx, &task.Task{CaseID: &duplicate.ID, Type: task.TypeSampleCollection, Status: task.StatusRemoved})

	if _, err := env.svc.Merge(ctx, lead.ID, duplicate.ID, actor); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	left, _ := env.tasks.FindBy(ctx, task.Criteria{CaseID: &duplicate.ID})
	if len(left) != 0 {
		t.Errorf("%d tasks still reference the retired duplicate", len(left))
	}
	moved, _ := env.tasks.FindBy(ctx, task.Criteria{CaseID: &lead.ID})
	if len(moved) != 2 {
		t.Fatalf("lead holds %d tasks after merge, want 2", len(moved))
	}
	for _, tk := range moved {
		if tk.Status != task.StatusDone && tk.Status != task.StatusRemoved {
			t.Errorf("task %s status = %s, want the closed status kept", tk.ID, tk.Status)
		}
	}
}

func TestMergeRealignsVisits(t *testing.T) {
	env := newTestEnv()
	district := env.regions.addDistrict("REG", "DIST01")
	actor := mergeActor(env)
	reportDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	lead := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "John", LastName: "Smith"})
	duplicate := env.addCase(disease.Measles, district, reportDate.AddDate(0, 0, 2), &person.Person{FirstName: "Jon", LastName: "Smith"})
	v := &visit.Visit{PersonID: duplicate.PersonID, Disease: disease.Measles, VisitDateTime: reportDate, VisitStatus: visit.StatusCooperative, Origin: visit.OriginUser}
	_ = env.visits.Create(ctx, v)

	if _, err := env.svc.Merge(ctx, lead.ID, duplicate.ID, actor); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	moved, _ := env.visits.ListByPersonAndDisease(ctx, lead.PersonID, disease.Cholera)
	if len(moved) != 1 {
		t.Fatalf("lead person holds %d visits for the lead disease, want 1", len(moved))
	}
	if moved[0].ID != v.ID {
		t.Errorf("visit %s moved, want %s", moved[0].ID, v.ID)
	}
	left, _ := env.visits.ListByPersonAndDisease(ctx, duplicate.PersonID, disease.Measles)
	if len(left) != 0 {
		t.Errorf("%d visits still attached to the duplicate's person and disease", len(left))
	}
}

func TestMergeFieldPrecedence(t *testing.T) {
	env := newTestEnv()
	district := env.regions.addDistrict("REG", "DIST01")
	actor := mergeActor(env)
	reportDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	lead := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "Lead", LastName: "Case"})
	lead.DiseaseDetails = "lead details"
	lead.AdditionalDetails = "seen at market"
	lead.Outcome = OutcomeNoOutcome

	duplicate := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "Dup", LastName: "Case"})
	duplicate.DiseaseDetails = "duplicate details"
	duplicate.DiseaseVariant = "O1"
	duplicate.AdditionalDetails = "travel history"
	duplicate.Outcome = OutcomeRecovered
	duplicate.CaseClassification = ClassificationProbable

	if _, err := env.svc.Merge(context.Background(), lead.ID, duplicate.ID, actor); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if lead.DiseaseDetails != "lead details" {
		t.Errorf("populated lead field overwritten: %q", lead.DiseaseDetails)
	}
	if lead.DiseaseVariant != "O1" {
		t.Errorf("empty lead field not filled: %q", lead.DiseaseVariant)
	}
	if lead.AdditionalDetails != "seen at market travel history" {
		t.Errorf("free text not concatenated: %q", lead.AdditionalDetails)
	}
	// A lead without an outcome takes the duplicate's.
	if lead.Outcome != OutcomeRecovered {
		t.Errorf("outcome = %s, want %s", lead.Outcome, OutcomeRecovered)
	}
	// Not-classified counts as unset for classification precedence.
	if lead.CaseClassification != ClassificationProbable {
		t.Errorf("classification = %s, want %s", lead.CaseClassification, ClassificationProbable)
	}
}

func TestMergeExposureInvariant(t *testing.T) {
	env := newTestEnv()
	district := env.regions.addDistrict("REG", "DIST01")
	actor := mergeActor(env)
	reportDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	lead := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "Lead", LastName: "Exposed"})
	lead.EpiData = &EpiData{Exposures: []Exposure{
		{ID: uuid.New(), Description: "lead well", ProbableInfectionEnvironment: true},
	}}
	duplicate := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "Dup", LastName: "Exposed"})
	duplicate.EpiData = &EpiData{Exposures: []Exposure{
		{ID: uuid.New(), Description: "dup market", ProbableInfectionEnvironment: true},
		{ID: uuid.New(), Description: "dup river"},
	}}

	if _, err := env.svc.Merge(context.Background(), lead.ID, duplicate.ID, actor); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if lead.EpiData == nil || len(lead.EpiData.Exposures) != 3 {
		t.Fatalf("exposures after merge = %v, want union of 3", lead.EpiData)
	}
	flagged := 0
	for _, e := range lead.EpiData.Exposures {
		if e.ProbableInfectionEnvironment {
			flagged++
		}
	}
	if flagged != 1 {
		t.Fatalf("probable infection environments = %d, want exactly 1", flagged)
	}
	if !lead.EpiData.Exposures[0].ProbableInfectionEnvironment {
		t.Error("surviving flag is not the lead's own exposure")
	}
}

func TestMergePropagatesActivityAsCase(t *testing.T) {
	env := newTestEnv()
	district := env.regions.addDistrict("REG", "DIST01")
	actor := mergeActor(env)
	reportDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	lead := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "Lead", LastName: "Active"})
	duplicate := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "Dup", LastName: "Active"})
	yes := Yes
	duplicate.EpiData = &EpiData{ActivityAsCaseDetailsKnown: &yes}

	if _, err := env.svc.Merge(context.Background(), lead.ID, duplicate.ID, actor); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if lead.EpiData == nil || lead.EpiData.ActivityAsCaseDetailsKnown == nil || *lead.EpiData.ActivityAsCaseDetailsKnown != Yes {
		t.Error("activity-as-case knowledge not propagated to the lead")
	}
}

func TestMergeConsolidatesPersons(t *testing.T) {
	env := newTestEnv()
	district := env.regions.addDistrict("REG", "DIST01")
	actor := mergeActor(env)
	reportDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	leadPerson := &person.Person{FirstName: "John", LastName: "Smith"}
	phone := "+123456"
	dupPerson := &person.Person{FirstName: "Jon", LastName: "Smith", Phone: &phone}
	lead := env.addCase(disease.Cholera, district, reportDate, leadPerson)
	duplicate := env.addCase(disease.Cholera, district, reportDate, dupPerson)

	// A follow-up visit recorded against the duplicate's person.
	_ = env.visits.Create(context.Background(), &visit.Visit{
		PersonID:      dupPerson.ID,
		Disease:       disease.Cholera,
		VisitDateTime: reportDate.AddDate(0, 0, 1),
		VisitStatus:   visit.StatusCooperative,
		Origin:        visit.OriginUser,
	})

	if _, err := env.svc.Merge(context.Background(), lead.ID, duplicate.ID, actor); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if leadPerson.Phone == nil || *leadPerson.Phone != phone {
		t.Error("lead person did not receive the duplicate's phone")
	}
	if leadPerson.FirstName != "John" {
		t.Errorf("lead person name = %q, want kept", leadPerson.FirstName)
	}
	moved, _ := env.visits.ListByPersonAndDisease(context.Background(), leadPerson.ID, disease.Cholera)
	if len(moved) != 1 {
		t.Errorf("visits on lead person = %d, want the duplicate's visit moved over", len(moved))
	}
}

func TestMergeGuards(t *testing.T) {
	env := newTestEnv()
	district := env.regions.addDistrict("REG", "DIST01")
	c := env.addCase(disease.Cholera, district, time.Now(), &person.Person{FirstName: "Only", LastName: "Case"})

	var verr *ValidationError
	if _, err := env.svc.Merge(context.Background(), c.ID, c.ID, mergeActor(env)); !errors.As(err, &verr) {
		t.Errorf("self-merge error = %v, want validation error", err)
	}

	officer := env.users.add(&user.User{Name: "officer", Roles: []user.Role{user.RoleSurveillanceOfficer}})
	if _, err := env.svc.Merge(context.Background(), c.ID, uuid.New(), officer); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("merge without right = %v, want ErrAccessDenied", err)
	}
}

func TestCloneCase(t *testing.T) {
	env := newTestEnv()
	district := env.regions.addDistrict("REG", "DIST01")
	actor := mergeActor(env)
	reportDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	source := env.addCase(disease.Cholera, district, reportDate, &person.Person{FirstName: "Source", LastName: "Case"})
	source.EpidNumber = "REG-DIST01-24-001"
	source.DiseaseDetails = "original details"
	seedDependents(env, source)
	before := countDependents(env, source)

	clone, err := env.svc.CloneCase(context.Background(), source.ID, actor)
	if err != nil {
		t.Fatalf("CloneCase: %v", err)
	}

	if clone.ID == source.ID {
		t.Fatal("clone shares the source's identity")
	}
	if clone.EpidNumber == source.EpidNumber || clone.EpidNumber != "REG-DIST01-24-002" {
		t.Errorf("clone epid number = %q, want a fresh %q", clone.EpidNumber, "REG-DIST01-24-002")
	}
	if clone.DiseaseDetails != source.DiseaseDetails {
		t.Errorf("clone details = %q, want copied", clone.DiseaseDetails)
	}
	if source.Deleted {
		t.Error("cloning deleted the source")
	}

	after := countDependents(env, source)
	for kind, n := range before {
		if after[kind] != n {
			t.Errorf("source %s after clone = %d, want unchanged %d", kind, after[kind], n)
		}
	}
	cloned := countDependents(env, clone)
	// Visits attach to the shared person, so the clone sees the same ones;
	// everything else must have been copied.
	for _, kind := range []string{"contacts", "samples", "pathogen tests", "pending tasks", "treatments", "prescriptions", "clinical visits", "documents", "event involvement", "reports"} {
		if cloned[kind] != before[kind] {
			t.Errorf("clone %s = %d, want %d copies", kind, cloned[kind], before[kind])
		}
	}
	// The resulting-contact link stays with the source.
	if cloned["resulting"] != 0 {
		t.Errorf("clone resulting contacts = %d, want 0", cloned["resulting"])
	}
}
