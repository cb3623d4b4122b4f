package report

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

func (r *repoPG) Create(ctx context.Context, rep *SurveillanceReport) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO surveillance_report (id, case_id, reporting_user_id, reporting_type,
			report_date, external_id, notification_details)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rep.ID, rep.CaseID, rep.ReportingUserID, rep.ReportingType,
		rep.ReportDate, rep.ExternalID, rep.NotificationDetails)
	return err
}

func (r *repoPG) Save(ctx context.Context, rep *SurveillanceReport) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE surveillance_report SET case_id=$2, reporting_user_id=$3, reporting_type=$4,
			report_date=$5, external_id=$6, notification_details=$7
		WHERE id = $1`,
		rep.ID, rep.CaseID, rep.ReportingUserID, rep.ReportingType,
		rep.ReportDate, rep.ExternalID, rep.NotificationDetails)
	return err
}

func (r *repoPG) ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]*SurveillanceReport, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, reporting_user_id, reporting_type, report_date, external_id,
			notification_details, created_at
		FROM surveillance_report WHERE case_id = $1
		ORDER BY report_date`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*SurveillanceReport
	for rows.Next() {
		var rep SurveillanceReport
		if err := rows.Scan(&rep.ID, &rep.CaseID, &rep.ReportingUserID, &rep.ReportingType,
			&rep.ReportDate, &rep.ExternalID, &rep.NotificationDetails, &rep.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, &rep)
	}
	return reports, rows.Err()
}
