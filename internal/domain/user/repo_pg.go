package user

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

const userCols = `id, name, email, phone, roles, region_id, district_id, facility_id,
	associated_officer_id, active`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var roles []string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &roles, &u.RegionID,
		&u.DistrictID, &u.FacilityID, &u.AssociatedOfficerID, &u.Active)
	if err != nil {
		return nil, err
	}
	u.Roles = make([]Role, len(roles))
	for i, role := range roles {
		u.Roles[i] = Role(role)
	}
	return &u, nil
}

func rolesToStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = string(role)
	}
	return out
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
}

func (r *repoPG) RandomByDistrict(ctx context.Context, districtID uuid.UUID, roles ...Role) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `
		SELECT `+userCols+` FROM app_user
		WHERE district_id = $1 AND active AND roles && $2
		ORDER BY random() LIMIT 1`, districtID, rolesToStrings(roles)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *repoPG) RandomByRegion(ctx context.Context, regionID uuid.UUID, roles ...Role) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `
		SELECT `+userCols+` FROM app_user
		WHERE region_id = $1 AND active AND roles && $2
		ORDER BY random() LIMIT 1`, regionID, rolesToStrings(roles)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *repoPG) InformantsOfFacility(ctx context.Context, facilityID uuid.UUID) ([]*User, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+userCols+` FROM app_user
		WHERE facility_id = $1 AND active AND roles && $2`,
		facilityID, rolesToStrings([]Role{RoleInformant}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *repoPG) ListByRegions(ctx context.Context, regionIDs []uuid.UUID, roles ...Role) ([]*User, error) {
	if len(regionIDs) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+userCols+` FROM app_user
		WHERE region_id = ANY($1) AND active AND roles && $2`,
		regionIDs, rolesToStrings(roles))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*User, error) {
	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
