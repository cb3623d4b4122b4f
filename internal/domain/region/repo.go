package region

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetRegion(ctx context.Context, id uuid.UUID) (*Region, error)
	GetDistrict(ctx context.Context, id uuid.UUID) (*District, error)
	GetFacility(ctx context.Context, id uuid.UUID) (*Facility, error)
	// FullEpidCode returns the district's epidemiological code prefixed with
	// its region's code, e.g. "REG-DIST01".
	FullEpidCode(ctx context.Context, districtID uuid.UUID) (string, error)
}
