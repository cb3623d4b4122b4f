// Package caze implements the case consolidation and classification engine:
// duplicate detection, epid number generation, automatic classification,
// follow-up scheduling, jurisdiction-driven task reassignment and the case
// merge orchestration. The package is named caze because case is a keyword.
package caze

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/epitrack/epitrack/internal/domain/disease"
)

type Classification string

const (
	ClassificationNotClassified            Classification = "NOT_CLASSIFIED"
	ClassificationSuspect                  Classification = "SUSPECT"
	ClassificationProbable                 Classification = "PROBABLE"
	ClassificationConfirmed                Classification = "CONFIRMED"
	ClassificationConfirmedNoSymptoms      Classification = "CONFIRMED_NO_SYMPTOMS"
	ClassificationConfirmedUnknownSymptoms Classification = "CONFIRMED_UNKNOWN_SYMPTOMS"
	ClassificationNoCase                   Classification = "NO_CASE"
)

// IsConfirmed reports membership in the confirmed family of classifications.
func (c Classification) IsConfirmed() bool {
	switch c {
	case ClassificationConfirmed, ClassificationConfirmedNoSymptoms, ClassificationConfirmedUnknownSymptoms:
		return true
	}
	return false
}

type InvestigationStatus string

const (
	InvestigationPending   InvestigationStatus = "PENDING"
	InvestigationDone      InvestigationStatus = "DONE"
	InvestigationDiscarded InvestigationStatus = "DISCARDED"
)

type Outcome string

const (
	OutcomeNoOutcome Outcome = "NO_OUTCOME"
	OutcomeRecovered Outcome = "RECOVERED"
	OutcomeDeceased  Outcome = "DECEASED"
	OutcomeUnknown   Outcome = "UNKNOWN"
)

type FollowUpStatus string

const (
	FollowUpOngoing   FollowUpStatus = "FOLLOW_UP"
	FollowUpCompleted FollowUpStatus = "COMPLETED"
	FollowUpCanceled  FollowUpStatus = "CANCELED"
	FollowUpLost      FollowUpStatus = "LOST"
	NoFollowUp        FollowUpStatus = "NO_FOLLOW_UP"
)

type ReferenceDefinition string

const (
	ReferenceFulfilled    ReferenceDefinition = "FULFILLED"
	ReferenceNotFulfilled ReferenceDefinition = "NOT_FULFILLED"
)

type YesNoUnknown string

const (
	Yes     YesNoUnknown = "YES"
	No      YesNoUnknown = "NO"
	Unknown YesNoUnknown = "UNKNOWN"
)

// Symptoms is the clinical picture owned by a case, stored as a document
// column alongside the case row.
type Symptoms struct {
	OnsetDate     *time.Time `json:"onset_date,omitempty"`
	Symptomatic   *bool      `json:"symptomatic,omitempty"`
	Fever         bool       `json:"fever,omitempty"`
	Cough         bool       `json:"cough,omitempty"`
	Headache      bool       `json:"headache,omitempty"`
	Diarrhea      bool       `json:"diarrhea,omitempty"`
	Vomiting      bool       `json:"vomiting,omitempty"`
	OtherSymptoms string     `json:"other_symptoms,omitempty"`
}

type Hospitalization struct {
	AdmittedToHealthFacility *YesNoUnknown `json:"admitted_to_health_facility,omitempty"`
	AdmissionDate            *time.Time    `json:"admission_date,omitempty"`
	DischargeDate            *time.Time    `json:"discharge_date,omitempty"`
	IsolationDate            *time.Time    `json:"isolation_date,omitempty"`
}

// Exposure is one entry in a case's epidemiological data. At most one
// exposure per case may be flagged as the probable infection environment.
type Exposure struct {
	ID                           uuid.UUID  `json:"id"`
	ExposureType                 string     `json:"exposure_type,omitempty"`
	Description                  string     `json:"description,omitempty"`
	StartDate                    *time.Time `json:"start_date,omitempty"`
	EndDate                      *time.Time `json:"end_date,omitempty"`
	ProbableInfectionEnvironment bool       `json:"probable_infection_environment"`
}

type EpiData struct {
	Exposures                  []Exposure    `json:"exposures,omitempty"`
	ExposureDetailsKnown       *YesNoUnknown `json:"exposure_details_known,omitempty"`
	ActivityAsCaseDetailsKnown *YesNoUnknown `json:"activity_as_case_details_known,omitempty"`
	ContactWithSourceCaseKnown *YesNoUnknown `json:"contact_with_source_case_known,omitempty"`
}

type MaternalHistory struct {
	ChildrenNumber *int          `json:"children_number,omitempty"`
	AgeAtBirth     *int          `json:"age_at_birth,omitempty"`
	Conjunctivitis *YesNoUnknown `json:"conjunctivitis,omitempty"`
}

type PortHealthInfo struct {
	AirlineName   string     `json:"airline_name,omitempty"`
	FlightNumber  string     `json:"flight_number,omitempty"`
	DepartureDate *time.Time `json:"departure_date,omitempty"`
	ArrivalDate   *time.Time `json:"arrival_date,omitempty"`
}

type Case struct {
	ID         uuid.UUID `json:"id"`
	EpidNumber string    `json:"epid_number,omitempty"`
	// ExternalID and ExternalToken identify the case in third-party
	// surveillance systems; either may be shared by several cases.
	ExternalID    string `json:"external_id,omitempty"`
	ExternalToken string `json:"external_token,omitempty"`

	Disease        disease.Disease `json:"disease"`
	DiseaseVariant string          `json:"disease_variant,omitempty"`
	DiseaseDetails string          `json:"disease_details,omitempty"`

	PersonID uuid.UUID `json:"person_id"`

	// CaseClassification is the user-facing value; SystemClassification is
	// always re-derivable from current facts. ClassificationUserID and
	// ClassificationDate record who set the user-facing value and when; both
	// are cleared when the engine overrules it.
	CaseClassification   Classification `json:"case_classification"`
	ClassificationUserID *uuid.UUID     `json:"classification_user_id,omitempty"`
	ClassificationDate   *time.Time     `json:"classification_date,omitempty"`
	SystemClassification Classification `json:"system_classification"`

	InvestigationStatus InvestigationStatus `json:"investigation_status"`
	InvestigatedDate    *time.Time          `json:"investigated_date,omitempty"`

	Outcome     Outcome    `json:"outcome"`
	OutcomeDate *time.Time `json:"outcome_date,omitempty"`

	ReportDate      time.Time  `json:"report_date"`
	ReportingUserID *uuid.UUID `json:"reporting_user_id,omitempty"`

	ResponsibleRegionID    *uuid.UUID `json:"responsible_region_id,omitempty"`
	ResponsibleDistrictID  *uuid.UUID `json:"responsible_district_id,omitempty"`
	ResponsibleCommunityID *uuid.UUID `json:"responsible_community_id,omitempty"`
	RegionID               *uuid.UUID `json:"region_id,omitempty"`
	DistrictID             *uuid.UUID `json:"district_id,omitempty"`
	CommunityID            *uuid.UUID `json:"community_id,omitempty"`
	HealthFacilityID       *uuid.UUID `json:"health_facility_id,omitempty"`
	FacilityDetails        string     `json:"facility_details,omitempty"`

	SurveillanceOfficerID *uuid.UUID `json:"surveillance_officer_id,omitempty"`

	FollowUpStatus FollowUpStatus `json:"follow_up_status"`
	FollowUpUntil  *time.Time     `json:"follow_up_until,omitempty"`
	// OverwriteFollowUpUntil pins FollowUpUntil against recomputation.
	OverwriteFollowUpUntil bool   `json:"overwrite_follow_up_until"`
	FollowUpComment        string `json:"follow_up_comment,omitempty"`

	CaseReferenceDefinition ReferenceDefinition `json:"case_reference_definition"`

	AdditionalDetails string `json:"additional_details,omitempty"`

	// TherapyID and ClinicalCourseID anchor the treatment and clinical-visit
	// records, which reference them instead of the case itself.
	TherapyID        uuid.UUID `json:"therapy_id"`
	ClinicalCourseID uuid.UUID `json:"clinical_course_id"`

	Symptoms        *Symptoms        `json:"symptoms,omitempty"`
	Hospitalization *Hospitalization `json:"hospitalization,omitempty"`
	EpiData         *EpiData         `json:"epi_data,omitempty"`
	MaternalHistory *MaternalHistory `json:"maternal_history,omitempty"`
	PortHealthInfo  *PortHealthInfo  `json:"port_health_info,omitempty"`

	Deleted  bool `json:"deleted"`
	Archived bool `json:"archived"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OnsetDate returns the symptom onset date, or nil when unknown.
func (c *Case) OnsetDate() *time.Time {
	if c.Symptoms == nil {
		return nil
	}
	return c.Symptoms.OnsetDate
}

// Completeness scores how much of the record is filled in, 0..1. When two
// cases in a duplicate pair match equally well, the more complete one is
// preferred as the merge lead.
func (c *Case) Completeness() float64 {
	var set, total float64
	count := func(filled bool) {
		total++
		if filled {
			set++
		}
	}
	count(c.EpidNumber != "")
	count(c.ExternalID != "")
	count(c.CaseClassification != "" && c.CaseClassification != ClassificationNotClassified)
	count(c.InvestigationStatus == InvestigationDone)
	count(c.Outcome != "" && c.Outcome != OutcomeNoOutcome)
	count(c.ResponsibleCommunityID != nil)
	count(c.HealthFacilityID != nil)
	count(c.SurveillanceOfficerID != nil)
	count(c.Symptoms != nil && c.Symptoms.OnsetDate != nil)
	count(c.Hospitalization != nil && c.Hospitalization.AdmissionDate != nil)
	count(c.EpiData != nil && len(c.EpiData.Exposures) > 0)
	count(strings.TrimSpace(c.AdditionalDetails) != "")
	return set / total
}
