package visit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epitrack/epitrack/internal/domain/disease"
	"github.com/epitrack/epitrack/internal/platform/db"
)

var ErrNotFound = errors.New("visit not found")

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

const visitCols = `id, person_id, disease, visit_date_time, visit_status, visit_remarks,
	origin, symptomatic, created_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.PersonID, &v.Disease, &v.VisitDateTime, &v.VisitStatus,
		&v.VisitRemarks, &v.Origin, &v.Symptomatic, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit (id, person_id, disease, visit_date_time, visit_status,
			visit_remarks, origin, symptomatic)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.PersonID, v.Disease, v.VisitDateTime, v.VisitStatus,
		v.VisitRemarks, v.Origin, v.Symptomatic)
	return err
}

func (r *repoPG) Save(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit SET person_id=$2, disease=$3, visit_date_time=$4, visit_status=$5,
			visit_remarks=$6, origin=$7, symptomatic=$8
		WHERE id = $1`,
		v.ID, v.PersonID, v.Disease, v.VisitDateTime, v.VisitStatus,
		v.VisitRemarks, v.Origin, v.Symptomatic)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := scanVisit(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM visit WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *repoPG) ListByPersonAndDisease(ctx context.Context, personID uuid.UUID, d disease.Disease) ([]*Visit, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+visitCols+` FROM visit
		WHERE person_id = $1 AND disease = $2
		ORDER BY visit_date_time`, personID, d)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
