// Package user holds the user model, role vocabulary and the role-scoped
// queries the task-assignment chain depends on.
package user

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleSurveillanceOfficer    Role = "SURVEILLANCE_OFFICER"
	RoleSurveillanceSupervisor Role = "SURVEILLANCE_SUPERVISOR"
	RoleAdminSupervisor        Role = "ADMIN_SUPERVISOR"
	RoleCaseSupervisor         Role = "CASE_SUPERVISOR"
	RoleContactSupervisor      Role = "CONTACT_SUPERVISOR"
	RoleInformant              Role = "HOSPITAL_INFORMANT"
	RoleNationalUser           Role = "NATIONAL_USER"
	RoleAdmin                  Role = "ADMIN"
)

// Right is a coarse operation permission derived from roles.
type Right string

const (
	RightCaseEdit   Right = "CASE_EDIT"
	RightCaseDelete Right = "CASE_DELETE"
	RightCaseMerge  Right = "CASE_MERGE"
)

var rightsByRole = map[Role][]Right{
	RoleAdmin:                  {RightCaseEdit, RightCaseDelete, RightCaseMerge},
	RoleNationalUser:           {RightCaseEdit, RightCaseMerge},
	RoleSurveillanceSupervisor: {RightCaseEdit, RightCaseMerge},
	RoleAdminSupervisor:        {RightCaseEdit, RightCaseDelete, RightCaseMerge},
	RoleCaseSupervisor:         {RightCaseEdit},
	RoleContactSupervisor:      {RightCaseEdit},
	RoleSurveillanceOfficer:    {RightCaseEdit},
	RoleInformant:              {RightCaseEdit},
}

type User struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email,omitempty"`
	Phone      string     `db:"phone" json:"phone,omitempty"`
	Roles      []Role     `db:"roles" json:"roles"`
	RegionID   *uuid.UUID `db:"region_id" json:"region_id,omitempty"`
	DistrictID *uuid.UUID `db:"district_id" json:"district_id,omitempty"`
	FacilityID *uuid.UUID `db:"facility_id" json:"facility_id,omitempty"`
	// AssociatedOfficerID links a hospital informant to their officer.
	AssociatedOfficerID *uuid.UUID `db:"associated_officer_id" json:"associated_officer_id,omitempty"`
	Active              bool       `db:"active" json:"active"`
}

// HasRole reports whether the user holds any of the given roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, want := range roles {
		for _, have := range u.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HasRight reports whether any of the user's roles grants the right.
func (u *User) HasRight(right Right) bool {
	for _, role := range u.Roles {
		for _, r := range rightsByRole[role] {
			if r == right {
				return true
			}
		}
	}
	return false
}
