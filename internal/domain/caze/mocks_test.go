package caze

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
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
	"github.com/epitrack/epitrack/internal/platform/notification"
)

type mockCaseRepo struct {
	mu    sync.Mutex
	cases map[uuid.UUID]*Case
	order []uuid.UUID
}

func newMockCaseRepo() *mockCaseRepo {
	return &mockCaseRepo{cases: map[uuid.UUID]*Case{}}
}

func (m *mockCaseRepo) Create(_ context.Context, c *Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	m.cases[c.ID] = c
	m.order = append(m.order, c.ID)
	return nil
}

func (m *mockCaseRepo) Save(_ context.Context, c *Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[c.ID]; !ok {
		return ErrNotFound
	}
	m.cases[c.ID] = c
	return nil
}

func (m *mockCaseRepo) GetByID(_ context.Context, id uuid.UUID) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok || c.Deleted {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCaseRepo) ListByPersonID(_ context.Context, personID uuid.UUID) ([]*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Case
	for _, id := range m.order {
		c := m.cases[id]
		if !c.Deleted && c.PersonID == personID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCaseRepo) List(_ context.Context, limit, offset int) ([]*Case, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Case
	for _, id := range m.order {
		if c := m.cases[id]; !c.Deleted {
			all = append(all, c)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *mockCaseRepo) ListEpidNumbersByPrefix(_ context.Context, prefix string, excludeCaseID uuid.UUID, d disease.Disease) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.cases {
		if c.Deleted || c.ID == excludeCaseID || c.Disease != d {
			continue
		}
		if strings.HasPrefix(c.EpidNumber, prefix) {
			out = append(out, c.EpidNumber)
		}
	}
	return out, nil
}

func (m *mockCaseRepo) CountByExternalID(_ context.Context, externalID string, excludeCaseID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.cases {
		if !c.Deleted && c.ID != excludeCaseID && c.ExternalID == externalID {
			count++
		}
	}
	return count, nil
}

func (m *mockCaseRepo) ListDuplicateCandidates(_ context.Context, d disease.Disease, reportDate time.Time, window time.Duration) ([]*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Case
	for _, id := range m.order {
		c := m.cases[id]
		if c.Deleted || c.Disease != d {
			continue
		}
		if reportDatesClose(c.ReportDate, reportDate, window) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCaseRepo) ListForDuplicateReview(_ context.Context, limit int) ([]*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Case
	for _, id := range m.order {
		if c := m.cases[id]; !c.Deleted {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockPersonRepo struct {
	persons map[uuid.UUID]*person.Person
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{persons: map[uuid.UUID]*person.Person{}}
}

func (m *mockPersonRepo) Create(_ context.Context, p *person.Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.persons[p.ID] = p
	return nil
}

func (m *mockPersonRepo) GetByID(_ context.Context, id uuid.UUID) (*person.Person, error) {
	p, ok := m.persons[id]
	if !ok {
		return nil, fmt.Errorf("person %s not found", id)
	}
	return p, nil
}

func (m *mockPersonRepo) Update(_ context.Context, p *person.Person) error {
	m.persons[p.ID] = p
	return nil
}

type mockContactRepo struct {
	contacts []*contact.Contact
}

func (m *mockContactRepo) Create(_ context.Context, c *contact.Contact) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.contacts = append(m.contacts, c)
	return nil
}

func (m *mockContactRepo) Save(context.Context, *contact.Contact) error { return nil }

func (m *mockContactRepo) ListByCaseID(_ context.Context, caseID uuid.UUID) ([]*contact.Contact, error) {
	var out []*contact.Contact
	for _, c := range m.contacts {
		if c.CaseID != nil && *c.CaseID == caseID && !c.Deleted {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContactRepo) ListByResultingCaseID(_ context.Context, caseID uuid.UUID) ([]*contact.Contact, error) {
	var out []*contact.Contact
	for _, c := range m.contacts {
		if c.ResultingCaseID != nil && *c.ResultingCaseID == caseID && !c.Deleted {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockSampleRepo struct {
	samples         []*sample.Sample
	pathogenTests   []*sample.PathogenTest
	additionalTests []*sample.AdditionalTest
}

func (m *mockSampleRepo) CreateSample(_ context.Context, s *sample.Sample) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.samples = append(m.samples, s)
	return nil
}

func (m *mockSampleRepo) SaveSample(context.Context, *sample.Sample) error { return nil }

func (m *mockSampleRepo) ListByCaseID(_ context.Context, caseID uuid.UUID) ([]*sample.Sample, error) {
	var out []*sample.Sample
	for _, s := range m.samples {
		if s.AssociatedCaseID == caseID && !s.Deleted {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSampleRepo) CreatePathogenTest(_ context.Context, t *sample.PathogenTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.pathogenTests = append(m.pathogenTests, t)
	return nil
}

func (m *mockSampleRepo) ListPathogenTestsBySampleID(_ context.Context, sampleID uuid.UUID) ([]*sample.PathogenTest, error) {
	var out []*sample.PathogenTest
	for _, t := range m.pathogenTests {
		if t.SampleID == sampleID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockSampleRepo) ListPathogenTestsByCaseID(ctx context.Context, caseID uuid.UUID) ([]*sample.PathogenTest, error) {
	samples, _ := m.ListByCaseID(ctx, caseID)
	var out []*sample.PathogenTest
	for _, s := range samples {
		tests, _ := m.ListPathogenTestsBySampleID(ctx, s.ID)
		out = append(out, tests...)
	}
	return out, nil
}

func (m *mockSampleRepo) CountPathogenTestsByCaseID(ctx context.Context, caseID uuid.UUID) (int, error) {
	tests, err := m.ListPathogenTestsByCaseID(ctx, caseID)
	return len(tests), err
}

func (m *mockSampleRepo) CreateAdditionalTest(_ context.Context, t *sample.AdditionalTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.additionalTests = append(m.additionalTests, t)
	return nil
}

func (m *mockSampleRepo) ListAdditionalTestsBySampleID(_ context.Context, sampleID uuid.UUID) ([]*sample.AdditionalTest, error) {
	var out []*sample.AdditionalTest
	for _, t := range m.additionalTests {
		if t.SampleID == sampleID {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockTaskRepo struct {
	tasks []*task.Task
}

func (m *mockTaskRepo) Create(_ context.Context, t *task.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *mockTaskRepo) Save(context.Context, *task.Task) error { return nil }

func (m *mockTaskRepo) FindBy(_ context.Context, criteria task.Criteria) ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range m.tasks {
		if criteria.CaseID != nil && (t.CaseID == nil || *t.CaseID != *criteria.CaseID) {
			continue
		}
		if criteria.Type != nil && t.Type != *criteria.Type {
			continue
		}
		if criteria.Status != nil && t.Status != *criteria.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTaskRepo) CountBy(ctx context.Context, criteria task.Criteria) (int, error) {
	tasks, err := m.FindBy(ctx, criteria)
	return len(tasks), err
}

type mockTreatmentRepo struct {
	treatments    []*treatment.Treatment
	prescriptions []*treatment.Prescription
}

func (m *mockTreatmentRepo) CreateTreatment(_ context.Context, t *treatment.Treatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.treatments = append(m.treatments, t)
	return nil
}

func (m *mockTreatmentRepo) SaveTreatment(context.Context, *treatment.Treatment) error { return nil }

func (m *mockTreatmentRepo) ListTreatmentsByTherapyID(_ context.Context, therapyID uuid.UUID) ([]*treatment.Treatment, error) {
	var out []*treatment.Treatment
	for _, t := range m.treatments {
		if t.TherapyID == therapyID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTreatmentRepo) CreatePrescription(_ context.Context, p *treatment.Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.prescriptions = append(m.prescriptions, p)
	return nil
}

func (m *mockTreatmentRepo) SavePrescription(context.Context, *treatment.Prescription) error {
	return nil
}

func (m *mockTreatmentRepo) ListPrescriptionsByTherapyID(_ context.Context, therapyID uuid.UUID) ([]*treatment.Prescription, error) {
	var out []*treatment.Prescription
	for _, p := range m.prescriptions {
		if p.TherapyID == therapyID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockClinicalVisitRepo struct {
	visits []*clinicalvisit.ClinicalVisit
}

func (m *mockClinicalVisitRepo) Create(_ context.Context, v *clinicalvisit.ClinicalVisit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	m.visits = append(m.visits, v)
	return nil
}

func (m *mockClinicalVisitRepo) Save(context.Context, *clinicalvisit.ClinicalVisit) error { return nil }

func (m *mockClinicalVisitRepo) ListByClinicalCourseID(_ context.Context, clinicalCourseID uuid.UUID) ([]*clinicalvisit.ClinicalVisit, error) {
	var out []*clinicalvisit.ClinicalVisit
	for _, v := range m.visits {
		if v.ClinicalCourseID == clinicalCourseID {
			out = append(out, v)
		}
	}
	return out, nil
}

type mockVisitRepo struct {
	visits []*visit.Visit
}

func (m *mockVisitRepo) Create(_ context.Context, v *visit.Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	m.visits = append(m.visits, v)
	return nil
}

func (m *mockVisitRepo) Save(context.Context, *visit.Visit) error { return nil }

func (m *mockVisitRepo) GetByID(_ context.Context, id uuid.UUID) (*visit.Visit, error) {
	for _, v := range m.visits {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, visit.ErrNotFound
}

func (m *mockVisitRepo) ListByPersonAndDisease(_ context.Context, personID uuid.UUID, d disease.Disease) ([]*visit.Visit, error) {
	var out []*visit.Visit
	for _, v := range m.visits {
		if v.PersonID == personID && v.Disease == d {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitDateTime.Before(out[j].VisitDateTime) })
	return out, nil
}

type mockDocumentRepo struct {
	documents []*document.Document
}

func (m *mockDocumentRepo) Create(_ context.Context, d *document.Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.documents = append(m.documents, d)
	return nil
}

func (m *mockDocumentRepo) Save(context.Context, *document.Document) error { return nil }

func (m *mockDocumentRepo) ListRelatedToCase(_ context.Context, caseID uuid.UUID) ([]*document.Document, error) {
	var out []*document.Document
	for _, d := range m.documents {
		if d.RelatedEntityType == document.RelatedCase && d.RelatedEntityID == caseID {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockEventRepo struct {
	participants []*event.EventParticipant
}

func (m *mockEventRepo) CreateParticipant(_ context.Context, ep *event.EventParticipant) error {
	if ep.ID == uuid.Nil {
		ep.ID = uuid.New()
	}
	m.participants = append(m.participants, ep)
	return nil
}

func (m *mockEventRepo) SaveParticipant(context.Context, *event.EventParticipant) error { return nil }

func (m *mockEventRepo) ListByResultingCaseID(_ context.Context, caseID uuid.UUID) ([]*event.EventParticipant, error) {
	var out []*event.EventParticipant
	for _, ep := range m.participants {
		if ep.ResultingCaseID != nil && *ep.ResultingCaseID == caseID {
			out = append(out, ep)
		}
	}
	return out, nil
}

type mockReportRepo struct {
	reports []*report.SurveillanceReport
}

func (m *mockReportRepo) Create(_ context.Context, rep *report.SurveillanceReport) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	m.reports = append(m.reports, rep)
	return nil
}

func (m *mockReportRepo) Save(context.Context, *report.SurveillanceReport) error { return nil }

func (m *mockReportRepo) ListByCaseID(_ context.Context, caseID uuid.UUID) ([]*report.SurveillanceReport, error) {
	var out []*report.SurveillanceReport
	for _, rep := range m.reports {
		if rep.CaseID == caseID {
			out = append(out, rep)
		}
	}
	return out, nil
}

type mockUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[uuid.UUID]*user.User{}}
}

func (m *mockUserRepo) add(u *user.User) *user.User {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Active = true
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	return u, nil
}

// sorted iteration keeps the "random" selection deterministic in tests.
func (m *mockUserRepo) all() []*user.User {
	out := make([]*user.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *mockUserRepo) RandomByDistrict(_ context.Context, districtID uuid.UUID, roles ...user.Role) (*user.User, error) {
	for _, u := range m.all() {
		if u.Active && u.DistrictID != nil && *u.DistrictID == districtID && u.HasRole(roles...) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) RandomByRegion(_ context.Context, regionID uuid.UUID, roles ...user.Role) (*user.User, error) {
	for _, u := range m.all() {
		if u.Active && u.RegionID != nil && *u.RegionID == regionID && u.HasRole(roles...) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) InformantsOfFacility(_ context.Context, facilityID uuid.UUID) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.all() {
		if u.Active && u.FacilityID != nil && *u.FacilityID == facilityID && u.HasRole(user.RoleInformant) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) ListByRegions(_ context.Context, regionIDs []uuid.UUID, roles ...user.Role) ([]*user.User, error) {
	var out []*user.User
	for _, u := range m.all() {
		if !u.Active || u.RegionID == nil || !u.HasRole(roles...) {
			continue
		}
		for _, id := range regionIDs {
			if *u.RegionID == id {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

type mockRegionRepo struct {
	regions    map[uuid.UUID]*region.Region
	districts  map[uuid.UUID]*region.District
	facilities map[uuid.UUID]*region.Facility
}

func newMockRegionRepo() *mockRegionRepo {
	return &mockRegionRepo{
		regions:    map[uuid.UUID]*region.Region{},
		districts:  map[uuid.UUID]*region.District{},
		facilities: map[uuid.UUID]*region.Facility{},
	}
}

func (m *mockRegionRepo) addDistrict(regionCode, districtCode string) *region.District {
	r := &region.Region{ID: uuid.New(), Name: regionCode, EpidCode: regionCode}
	m.regions[r.ID] = r
	d := &region.District{ID: uuid.New(), RegionID: r.ID, Name: districtCode, EpidCode: districtCode}
	m.districts[d.ID] = d
	return d
}

func (m *mockRegionRepo) addFacility(districtID uuid.UUID) *region.Facility {
	f := &region.Facility{ID: uuid.New(), DistrictID: districtID, Name: "facility", Type: region.FacilityHospital}
	m.facilities[f.ID] = f
	return f
}

func (m *mockRegionRepo) GetRegion(_ context.Context, id uuid.UUID) (*region.Region, error) {
	r, ok := m.regions[id]
	if !ok {
		return nil, fmt.Errorf("region %s not found", id)
	}
	return r, nil
}

func (m *mockRegionRepo) GetDistrict(_ context.Context, id uuid.UUID) (*region.District, error) {
	d, ok := m.districts[id]
	if !ok {
		return nil, fmt.Errorf("district %s not found", id)
	}
	return d, nil
}

func (m *mockRegionRepo) GetFacility(_ context.Context, id uuid.UUID) (*region.Facility, error) {
	f, ok := m.facilities[id]
	if !ok {
		return nil, fmt.Errorf("facility %s not found", id)
	}
	return f, nil
}

func (m *mockRegionRepo) FullEpidCode(ctx context.Context, districtID uuid.UUID) (string, error) {
	d, err := m.GetDistrict(ctx, districtID)
	if err != nil {
		return "", err
	}
	r, err := m.GetRegion(ctx, d.RegionID)
	if err != nil {
		return "", err
	}
	if r.EpidCode == "" {
		return d.EpidCode, nil
	}
	return r.EpidCode + "-" + d.EpidCode, nil
}

type nopTxRunner struct{}

func (nopTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingGateway struct {
	deleted []string
	fail    bool
}

func (g *recordingGateway) Enabled() bool { return true }

func (g *recordingGateway) NotifyCaseDeleted(_ context.Context, externalID string) error {
	if g.fail {
		return fmt.Errorf("surveillance tool unreachable")
	}
	g.deleted = append(g.deleted, externalID)
	return nil
}

// testEnv bundles the service and its mocks for assertions.
type testEnv struct {
	svc        *Service
	cfg        *config.Config
	cases      *mockCaseRepo
	persons    *mockPersonRepo
	contacts   *mockContactRepo
	samples    *mockSampleRepo
	tasks      *mockTaskRepo
	treatments *mockTreatmentRepo
	clinVisits *mockClinicalVisitRepo
	visits     *mockVisitRepo
	documents  *mockDocumentRepo
	events     *mockEventRepo
	reports    *mockReportRepo
	users      *mockUserRepo
	regions    *mockRegionRepo
	notifier   *notification.MemoryNotifier
	gateway    *recordingGateway
}

func newTestEnv() *testEnv {
	env := &testEnv{
		cfg: &config.Config{
			NameSimilarityThreshold: 0.65,
			ReportDateWindowDays:    30,
			AutomaticClassification: true,
			TaskGeneration:          true,
			ReferenceDefinition:     true,
			DefaultFollowUpDays:     21,
		},
		cases:      newMockCaseRepo(),
		persons:    newMockPersonRepo(),
		contacts:   &mockContactRepo{},
		samples:    &mockSampleRepo{},
		tasks:      &mockTaskRepo{},
		treatments: &mockTreatmentRepo{},
		clinVisits: &mockClinicalVisitRepo{},
		visits:     &mockVisitRepo{},
		documents:  &mockDocumentRepo{},
		events:     &mockEventRepo{},
		reports:    &mockReportRepo{},
		users:      newMockUserRepo(),
		regions:    newMockRegionRepo(),
		notifier:   notification.NewMemoryNotifier(),
		gateway:    &recordingGateway{},
	}
	visitSvc := visit.NewService(env.visits, zerolog.Nop())
	env.svc = NewService(Deps{
		Cases:          env.cases,
		Persons:        person.NewService(env.persons),
		Contacts:       env.contacts,
		Samples:        env.samples,
		Tasks:          env.tasks,
		Treatments:     env.treatments,
		ClinicalVisits: env.clinVisits,
		Visits:         env.visits,
		VisitService:   visitSvc,
		Documents:      env.documents,
		Events:         env.events,
		Reports:        report.NewService(env.reports),
		Districts:      env.regions,
		Users:          env.users,
		Rules:          DefaultRules{},
		DiseaseCfg:     disease.DefaultConfiguration(21),
		Notifier:       env.notifier,
		Surveillance:   env.gateway,
		TxRunner:       nopTxRunner{},
		Cfg:            env.cfg,
		Log:            zerolog.Nop(),
	})
	return env
}

// addCase seeds a stored case with sensible defaults in the given district.
func (env *testEnv) addCase(d disease.Disease, district *region.District, reportDate time.Time, p *person.Person) *Case {
	if p.ID == uuid.Nil {
		_ = env.persons.Create(context.Background(), p)
	} else {
		env.persons.persons[p.ID] = p
	}
	c := newCaseShell(p.ID, d, reportDate)
	c.ResponsibleRegionID = &district.RegionID
	c.ResponsibleDistrictID = &district.ID
	_ = env.cases.Create(context.Background(), c)
	return c
}
