// Package sample holds laboratory samples and their nested pathogen and
// additional tests.
package sample

import (
	"time"

	"github.com/google/uuid"
)

type TestResult string

const (
	ResultPositive      TestResult = "POSITIVE"
	ResultNegative      TestResult = "NEGATIVE"
	ResultPending       TestResult = "PENDING"
	ResultIndeterminate TestResult = "INDETERMINATE"
)

type TestType string

const (
	TestPCR        TestType = "PCR_RT_PCR"
	TestIsolation  TestType = "ISOLATION"
	TestSequencing TestType = "SEQUENCING"
	TestAntigen    TestType = "ANTIGEN_DETECTION"
	TestRapid      TestType = "RAPID_TEST"
	TestSerology   TestType = "SEROLOGY"
	TestOther      TestType = "OTHER"
)

type Sample struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	AssociatedCaseID uuid.UUID  `db:"associated_case_id" json:"associated_case_id"`
	ReportingUserID  *uuid.UUID `db:"reporting_user_id" json:"reporting_user_id,omitempty"`
	SampleDateTime   time.Time  `db:"sample_date_time" json:"sample_date_time"`
	Material         *string    `db:"material" json:"material,omitempty"`
	LabID            *uuid.UUID `db:"lab_id" json:"lab_id,omitempty"`
	// OverallTestResult mirrors the latest pathogen test outcome.
	OverallTestResult *TestResult `db:"overall_test_result" json:"overall_test_result,omitempty"`
	Deleted           bool        `db:"deleted" json:"deleted"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

type PathogenTest struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	SampleID     uuid.UUID  `db:"sample_id" json:"sample_id"`
	LabUserID    *uuid.UUID `db:"lab_user_id" json:"lab_user_id,omitempty"`
	TestType     TestType   `db:"test_type" json:"test_type"`
	TestResult   TestResult `db:"test_result" json:"test_result"`
	TestDateTime *time.Time `db:"test_date_time" json:"test_date_time,omitempty"`
	Verified     bool       `db:"verified" json:"verified"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

type AdditionalTest struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	SampleID     uuid.UUID  `db:"sample_id" json:"sample_id"`
	TestDateTime *time.Time `db:"test_date_time" json:"test_date_time,omitempty"`
	Observations *string    `db:"observations" json:"observations,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
