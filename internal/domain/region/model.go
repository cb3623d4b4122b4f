// Package region holds the jurisdiction reference data: regions, districts,
// communities and health facilities.
package region

import (
	"github.com/google/uuid"
)

type Region struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	EpidCode string    `db:"epid_code" json:"epid_code"`
}

type District struct {
	ID       uuid.UUID `db:"id" json:"id"`
	RegionID uuid.UUID `db:"region_id" json:"region_id"`
	Name     string    `db:"name" json:"name"`
	EpidCode string    `db:"epid_code" json:"epid_code"`
}

type Community struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DistrictID uuid.UUID `db:"district_id" json:"district_id"`
	Name       string    `db:"name" json:"name"`
}

type FacilityType string

const (
	FacilityHospital   FacilityType = "HOSPITAL"
	FacilityLaboratory FacilityType = "LABORATORY"
	FacilityOther      FacilityType = "OTHER"
)

type Facility struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	DistrictID uuid.UUID    `db:"district_id" json:"district_id"`
	Name       string       `db:"name" json:"name"`
	Type       FacilityType `db:"type" json:"type"`
}
