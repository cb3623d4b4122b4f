package caze

import (
	"github.com/epitrack/epitrack/internal/domain/sample"
)

// CaseFacts is the snapshot the disease rule evaluator classifies from. It
// carries everything classification-relevant and nothing else, so rules stay
// pure functions.
type CaseFacts struct {
	Case          *Case
	PathogenTests []*sample.PathogenTest
}

// ClassificationRules is the disease-specific rule table. Implementations
// must be deterministic in the facts.
type ClassificationRules interface {
	Classify(facts CaseFacts) Classification
}

// DefaultRules classifies from lab evidence first, then clinical and
// epidemiological evidence. Countries with their own case definitions plug
// in their own ClassificationRules.
type DefaultRules struct{}

func (DefaultRules) Classify(facts CaseFacts) Classification {
	c := facts.Case
	if hasPositiveLabEvidence(facts.PathogenTests) {
		switch symptomatic(c) {
		case Yes:
			return ClassificationConfirmed
		case No:
			return ClassificationConfirmedNoSymptoms
		default:
			return ClassificationConfirmedUnknownSymptoms
		}
	}
	if symptomatic(c) == Yes {
		if c.EpiData != nil && c.EpiData.ContactWithSourceCaseKnown != nil &&
			*c.EpiData.ContactWithSourceCaseKnown == Yes {
			return ClassificationProbable
		}
		return ClassificationSuspect
	}
	return ClassificationNotClassified
}

// confirmatoryTestTypes are the test types that can confirm a case and that
// reference-definition fulfillment requires.
var confirmatoryTestTypes = map[sample.TestType]bool{
	sample.TestPCR:        true,
	sample.TestIsolation:  true,
	sample.TestSequencing: true,
}

func hasPositiveLabEvidence(tests []*sample.PathogenTest) bool {
	for _, t := range tests {
		if confirmatoryTestTypes[t.TestType] && t.TestResult == sample.ResultPositive {
			return true
		}
	}
	return false
}

func symptomatic(c *Case) YesNoUnknown {
	if c.Symptoms == nil || c.Symptoms.Symptomatic == nil {
		return Unknown
	}
	if *c.Symptoms.Symptomatic {
		return Yes
	}
	return No
}
