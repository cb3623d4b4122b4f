package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// RandomByDistrict returns a random active user in the district holding
	// any of the roles, or nil when none exists.
	RandomByDistrict(ctx context.Context, districtID uuid.UUID, roles ...Role) (*User, error)
	// RandomByRegion returns a random active user in the region holding any
	// of the roles, or nil when none exists.
	RandomByRegion(ctx context.Context, regionID uuid.UUID, roles ...Role) (*User, error)
	// InformantsOfFacility lists the active hospital informants of a facility.
	InformantsOfFacility(ctx context.Context, facilityID uuid.UUID) ([]*User, error)
	// ListByRegions lists active users holding any of the roles in any of
	// the regions. Used for supervisor notifications.
	ListByRegions(ctx context.Context, regionIDs []uuid.UUID, roles ...Role) ([]*User, error)
}
