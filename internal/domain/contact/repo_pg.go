package contact

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

const contactCols = `id, case_id, person_id, disease, disease_details, report_date,
	last_contact_at, follow_up_status, follow_up_until, resulting_case_id, deleted,
	created_at, updated_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.CaseID, &c.PersonID, &c.Disease, &c.DiseaseDetails,
		&c.ReportDate, &c.LastContactAt, &c.FollowUpStatus, &c.FollowUpUntil,
		&c.ResultingCaseID, &c.Deleted, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, c *Contact) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO contact (id, case_id, person_id, disease, disease_details, report_date,
			last_contact_at, follow_up_status, follow_up_until, resulting_case_id, deleted)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		c.ID, c.CaseID, c.PersonID, c.Disease, c.DiseaseDetails, c.ReportDate,
		c.LastContactAt, c.FollowUpStatus, c.FollowUpUntil, c.ResultingCaseID, c.Deleted)
	return err
}

func (r *repoPG) Save(ctx context.Context, c *Contact) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE contact SET case_id=$2, person_id=$3, disease=$4, disease_details=$5,
			last_contact_at=$6, follow_up_status=$7, follow_up_until=$8,
			resulting_case_id=$9, deleted=$10, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.CaseID, c.PersonID, c.Disease, c.DiseaseDetails,
		c.LastContactAt, c.FollowUpStatus, c.FollowUpUntil, c.ResultingCaseID, c.Deleted)
	return err
}

func (r *repoPG) ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]*Contact, error) {
	return r.list(ctx, `SELECT `+contactCols+` FROM contact WHERE case_id = $1 AND NOT deleted`, caseID)
}

func (r *repoPG) ListByResultingCaseID(ctx context.Context, caseID uuid.UUID) ([]*Contact, error) {
	return r.list(ctx, `SELECT `+contactCols+` FROM contact WHERE resulting_case_id = $1 AND NOT deleted`, caseID)
}

func (r *repoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Contact, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
