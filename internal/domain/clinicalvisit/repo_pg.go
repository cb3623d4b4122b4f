package clinicalvisit

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

func (r *repoPG) Create(ctx context.Context, v *ClinicalVisit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_visit (id, clinical_course_id, disease, visit_date_time,
			visit_remarks, visiting_person)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		v.ID, v.ClinicalCourseID, v.Disease, v.VisitDateTime, v.VisitRemarks, v.VisitingPerson)
	return err
}

func (r *repoPG) Save(ctx context.Context, v *ClinicalVisit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_visit SET clinical_course_id=$2, disease=$3, visit_date_time=$4,
			visit_remarks=$5, visiting_person=$6
		WHERE id = $1`,
		v.ID, v.ClinicalCourseID, v.Disease, v.VisitDateTime, v.VisitRemarks, v.VisitingPerson)
	return err
}

func (r *repoPG) ListByClinicalCourseID(ctx context.Context, clinicalCourseID uuid.UUID) ([]*ClinicalVisit, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, clinical_course_id, disease, visit_date_time, visit_remarks,
			visiting_person, created_at
		FROM clinical_visit WHERE clinical_course_id = $1
		ORDER BY visit_date_time`, clinicalCourseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []*ClinicalVisit
	for rows.Next() {
		var v ClinicalVisit
		if err := rows.Scan(&v.ID, &v.ClinicalCourseID, &v.Disease, &v.VisitDateTime,
			&v.VisitRemarks, &v.VisitingPerson, &v.CreatedAt); err != nil {
			return nil, err
		}
		visits = append(visits, &v)
	}
	return visits, rows.Err()
}
