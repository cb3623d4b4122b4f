package task

import (
	"context"
	"fmt"

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

const taskCols = `id, case_id, type, status, priority, assignee_user_id, creator_user_id,
	suggested_start, due_date, status_change_date, comment, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.CaseID, &t.Type, &t.Status, &t.Priority,
		&t.AssigneeUserID, &t.CreatorUserID, &t.SuggestedStart, &t.DueDate,
		&t.StatusChangeDate, &t.Comment, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) Create(ctx context.Context, t *Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_task (id, case_id, type, status, priority, assignee_user_id,
			creator_user_id, suggested_start, due_date, status_change_date, comment)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.CaseID, t.Type, t.Status, t.Priority, t.AssigneeUserID,
		t.CreatorUserID, t.SuggestedStart, t.DueDate, t.StatusChangeDate, t.Comment)
	return err
}

func (r *repoPG) Save(ctx context.Context, t *Task) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_task SET case_id=$2, status=$3, priority=$4, assignee_user_id=$5,
			due_date=$6, status_change_date=$7, comment=$8, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.CaseID, t.Status, t.Priority, t.AssigneeUserID,
		t.DueDate, t.StatusChangeDate, t.Comment)
	return err
}

func criteriaWhere(criteria Criteria) (string, []interface{}) {
	where := "TRUE"
	var args []interface{}
	if criteria.CaseID != nil {
		args = append(args, *criteria.CaseID)
		where += fmt.Sprintf(" AND case_id = $%d", len(args))
	}
	if criteria.Type != nil {
		args = append(args, *criteria.Type)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if criteria.Status != nil {
		args = append(args, *criteria.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	return where, args
}

func (r *repoPG) FindBy(ctx context.Context, criteria Criteria) ([]*Task, error) {
	where, args := criteriaWhere(criteria)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+taskCols+` FROM case_task WHERE `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *repoPG) CountBy(ctx context.Context, criteria Criteria) (int, error) {
	where, args := criteriaWhere(criteria)
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT count(*) FROM case_task WHERE `+where, args...).Scan(&n)
	return n, err
}
