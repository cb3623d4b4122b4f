package person

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

const personCols = `id, first_name, last_name, sex, birthdate_dd, birthdate_mm, birthdate_yyyy,
	present_condition, death_date, phone, email, address, created_at, updated_at`

func scanPerson(row pgx.Row) (*Person, error) {
	var p Person
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Sex,
		&p.BirthdateDD, &p.BirthdateMM, &p.BirthdateYYYY,
		&p.PresentCondition, &p.DeathDate, &p.Phone, &p.Email, &p.Address,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO person (id, first_name, last_name, sex, birthdate_dd, birthdate_mm,
			birthdate_yyyy, present_condition, death_date, phone, email, address)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.FirstName, p.LastName, p.Sex, p.BirthdateDD, p.BirthdateMM,
		p.BirthdateYYYY, p.PresentCondition, p.DeathDate, p.Phone, p.Email, p.Address)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Person, error) {
	return scanPerson(r.conn(ctx).QueryRow(ctx,
		`SELECT `+personCols+` FROM person WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Person) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE person SET first_name=$2, last_name=$3, sex=$4, birthdate_dd=$5,
			birthdate_mm=$6, birthdate_yyyy=$7, present_condition=$8, death_date=$9,
			phone=$10, email=$11, address=$12, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.Sex, p.BirthdateDD, p.BirthdateMM,
		p.BirthdateYYYY, p.PresentCondition, p.DeathDate, p.Phone, p.Email, p.Address)
	return err
}
