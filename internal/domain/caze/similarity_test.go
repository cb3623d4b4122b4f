package caze

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/disease"
	"github.com/epitrack/epitrack/internal/domain/person"
)

func matcherForTest() Matcher {
	return Matcher{NameThreshold: 0.65, ReportDateWindow: 30 * 24 * time.Hour}
}

func matchInput(first, last string, d disease.Disease, districtID uuid.UUID, reportDate time.Time) MatchInput {
	return MatchInput{
		Case: &Case{
			ID:                    uuid.New(),
			Disease:               d,
			ReportDate:            reportDate,
			ResponsibleDistrictID: &districtID,
			CreatedAt:             reportDate,
		},
		Person: &person.Person{ID: uuid.New(), FirstName: first, LastName: last},
	}
}

func TestNameSimilarityIdentical(t *testing.T) {
	if got := NameSimilarity("John Smith", "John Smith"); got != 1 {
		t.Errorf("identical names score %v, want 1", got)
	}
	if got := NameSimilarity("John Smith", "Xavier Quzzle"); got > 0.3 {
		t.Errorf("unrelated names score %v, want near 0", got)
	}
	if got := NameSimilarity("", "John Smith"); got != 0 {
		t.Errorf("empty name score %v, want 0", got)
	}
}

func TestSimilarNearNamesWithinWindow(t *testing.T) {
	m := matcherForTest()
	districtID := uuid.New()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a := matchInput("John", "Smith", disease.Cholera, districtID, base)
	b := matchInput("Jon", "Smith", disease.Cholera, districtID, base.AddDate(0, 0, 3))
	if !m.Similar(a, b) {
		t.Error("John Smith vs Jon Smith, 3 days apart, same district: want similar")
	}

	far := matchInput("Jon", "Smith", disease.Cholera, districtID, base.AddDate(0, 0, 90))
	if m.Similar(a, far) {
		t.Error("report dates 90 days apart: want not similar")
	}

	otherDisease := matchInput("Jon", "Smith", disease.Measles, districtID, base.AddDate(0, 0, 3))
	if m.Similar(a, otherDisease) {
		t.Error("different disease: want not similar")
	}

	otherDistrict := matchInput("Jon", "Smith", disease.Cholera, uuid.New(), base.AddDate(0, 0, 3))
	if m.Similar(a, otherDistrict) {
		t.Error("different district: want not similar")
	}
}

func TestSimilarOnsetDateProximity(t *testing.T) {
	m := matcherForTest()
	districtID := uuid.New()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a := matchInput("John", "Smith", disease.Cholera, districtID, base)
	b := matchInput("Jon", "Smith", disease.Cholera, districtID, base.AddDate(0, 0, 3))
	onsetA := base.AddDate(0, 0, -2)
	onsetB := base.AddDate(0, 0, -60)
	a.Case.Symptoms = &Symptoms{OnsetDate: &onsetA}
	b.Case.Symptoms = &Symptoms{OnsetDate: &onsetB}
	if m.Similar(a, b) {
		t.Error("onset dates 58 days apart: want not similar")
	}

	// Onset on only one side never disqualifies.
	b.Case.Symptoms = nil
	if !m.Similar(a, b) {
		t.Error("onset set on one side only: want similar")
	}
}

func TestSimilarSymmetry(t *testing.T) {
	m := matcherForTest()
	districtID := uuid.New()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	inputs := []MatchInput{
		matchInput("John", "Smith", disease.Cholera, districtID, base),
		matchInput("Jon", "Smith", disease.Cholera, districtID, base.AddDate(0, 0, 3)),
		matchInput("Mary", "Jones", disease.Cholera, districtID, base),
		matchInput("John", "Smith", disease.Measles, districtID, base),
	}
	for i := range inputs {
		for j := range inputs {
			if m.Similar(inputs[i], inputs[j]) != m.Similar(inputs[j], inputs[i]) {
				t.Errorf("Similar not symmetric for inputs %d and %d", i, j)
			}
		}
	}
}

func TestSimilarOptionalFieldSemantics(t *testing.T) {
	m := matcherForTest()
	districtID := uuid.New()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a := matchInput("John", "Smith", disease.Cholera, districtID, base)
	b := matchInput("John", "Smith", disease.Cholera, districtID, base.AddDate(0, 0, 1))

	// Both sides missing birth data: not disqualifying.
	if !m.Similar(a, b) {
		t.Fatal("missing birthdates on both sides must not disqualify")
	}

	// One side set, other missing: still not disqualifying.
	year := 1980
	a.Person.BirthdateYYYY = &year
	if !m.Similar(a, b) {
		t.Error("birthdate set on one side only must not disqualify")
	}

	// Both set and different: disqualifying.
	otherYear := 1990
	b.Person.BirthdateYYYY = &otherYear
	if m.Similar(a, b) {
		t.Error("different birth years on both sides must disqualify")
	}

	// Both set and equal: matches again.
	b.Person.BirthdateYYYY = &year
	if !m.Similar(a, b) {
		t.Error("equal birth years must not disqualify")
	}

	male, female := person.SexMale, person.SexFemale
	a.Person.Sex, b.Person.Sex = &male, &female
	if m.Similar(a, b) {
		t.Error("different sex on both sides must disqualify")
	}
}

func TestIsDuplicateExternalIdentifiers(t *testing.T) {
	m := matcherForTest()
	districtID := uuid.New()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a := matchInput("John", "Smith", disease.Cholera, districtID, base)
	b := matchInput("Completely", "Different", disease.Measles, uuid.New(), base.AddDate(0, 0, 200))

	if m.IsDuplicate(a, b) {
		t.Fatal("unrelated cases must not be duplicates")
	}

	a.Case.ExternalID, b.Case.ExternalID = "EXT-1", "EXT-1"
	if !m.IsDuplicate(a, b) {
		t.Error("shared external id must mark a duplicate regardless of similarity")
	}

	a.Case.ExternalID, b.Case.ExternalID = "EXT-1", "EXT-2"
	a.Case.ExternalToken, b.Case.ExternalToken = "tok", "tok"
	if !m.IsDuplicate(a, b) {
		t.Error("shared external token must mark a duplicate regardless of similarity")
	}
}

func TestRankDuplicatePairs(t *testing.T) {
	m := matcherForTest()
	districtID := uuid.New()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	complete := matchInput("John", "Smith", disease.Cholera, districtID, base)
	complete.Case.EpidNumber = "DIST01-24-001"
	complete.Case.ExternalID = "EXT-9"
	officer := uuid.New()
	complete.Case.SurveillanceOfficerID = &officer
	complete.Case.CaseClassification = ClassificationConfirmed
	complete.Case.CreatedAt = base

	sparse := matchInput("Jon", "Smith", disease.Cholera, districtID, base.AddDate(0, 0, 2))
	sparse.Case.CreatedAt = base.AddDate(0, 0, 2)

	unrelatedOld := matchInput("Aaa", "Bbb", disease.Cholera, districtID, base)
	unrelatedNew := matchInput("Aab", "Bbb", disease.Cholera, districtID, base.AddDate(0, 0, 20))
	unrelatedNew.Case.CreatedAt = base.AddDate(0, 0, 20)

	pairs := m.RankDuplicatePairs([]MatchInput{complete, sparse, unrelatedOld, unrelatedNew})
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(pairs))
	}
	// The Aab/Aaa pair was created later, so it ranks first.
	if pairs[0].Child.Case.ID != unrelatedNew.Case.ID && pairs[0].Parent.Case.ID != unrelatedNew.Case.ID {
		t.Error("newest pair must rank first")
	}
	for _, p := range pairs {
		if p.Parent.Case.ID == complete.Case.ID || p.Child.Case.ID == complete.Case.ID {
			if p.Parent.Case.ID != complete.Case.ID {
				t.Error("the more complete case must be the parent of its pair")
			}
		}
	}
}
