package event

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

func (r *repoPG) CreateParticipant(ctx context.Context, ep *EventParticipant) error {
	if ep.ID == uuid.Nil {
		ep.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO event_participant (id, event_id, person_id, involvement_description,
			resulting_case_id)
		VALUES ($1,$2,$3,$4,$5)`,
		ep.ID, ep.EventID, ep.PersonID, ep.InvolvementDescription, ep.ResultingCaseID)
	return err
}

func (r *repoPG) SaveParticipant(ctx context.Context, ep *EventParticipant) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE event_participant SET event_id=$2, person_id=$3,
			involvement_description=$4, resulting_case_id=$5
		WHERE id = $1`,
		ep.ID, ep.EventID, ep.PersonID, ep.InvolvementDescription, ep.ResultingCaseID)
	return err
}

func (r *repoPG) ListByResultingCaseID(ctx context.Context, caseID uuid.UUID) ([]*EventParticipant, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, event_id, person_id, involvement_description, resulting_case_id, created_at
		FROM event_participant WHERE resulting_case_id = $1`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []*EventParticipant
	for rows.Next() {
		var ep EventParticipant
		if err := rows.Scan(&ep.ID, &ep.EventID, &ep.PersonID, &ep.InvolvementDescription,
			&ep.ResultingCaseID, &ep.CreatedAt); err != nil {
			return nil, err
		}
		participants = append(participants, &ep)
	}
	return participants, rows.Err()
}
