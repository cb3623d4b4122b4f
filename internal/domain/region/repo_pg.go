package region

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epitrack/epitrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) GetRegion(ctx context.Context, id uuid.UUID) (*Region, error) {
	var reg Region
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, name, epid_code FROM region WHERE id = $1`, id).
		Scan(&reg.ID, &reg.Name, &reg.EpidCode)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *repoPG) GetDistrict(ctx context.Context, id uuid.UUID) (*District, error) {
	var d District
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, region_id, name, epid_code FROM district WHERE id = $1`, id).
		Scan(&d.ID, &d.RegionID, &d.Name, &d.EpidCode)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) GetFacility(ctx context.Context, id uuid.UUID) (*Facility, error) {
	var f Facility
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, district_id, name, type FROM facility WHERE id = $1`, id).
		Scan(&f.ID, &f.DistrictID, &f.Name, &f.Type)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repoPG) FullEpidCode(ctx context.Context, districtID uuid.UUID) (string, error) {
	var regionCode, districtCode string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(r.epid_code, ''), d.epid_code
		FROM district d
		LEFT JOIN region r ON r.id = d.region_id
		WHERE d.id = $1`, districtID).
		Scan(&regionCode, &districtCode)
	if err != nil {
		return "", err
	}
	if regionCode == "" {
		return districtCode, nil
	}
	return regionCode + "-" + districtCode, nil
}
