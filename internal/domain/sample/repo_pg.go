package sample

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

const sampleCols = `id, associated_case_id, reporting_user_id, sample_date_time, material,
	lab_id, overall_test_result, deleted, created_at, updated_at`

func scanSample(row pgx.Row) (*Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.AssociatedCaseID, &s.ReportingUserID, &s.SampleDateTime,
		&s.Material, &s.LabID, &s.OverallTestResult, &s.Deleted, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) CreateSample(ctx context.Context, s *Sample) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO sample (id, associated_case_id, reporting_user_id, sample_date_time,
			material, lab_id, overall_test_result, deleted)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.AssociatedCaseID, s.ReportingUserID, s.SampleDateTime,
		s.Material, s.LabID, s.OverallTestResult, s.Deleted)
	return err
}

func (r *repoPG) SaveSample(ctx context.Context, s *Sample) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE sample SET associated_case_id=$2, sample_date_time=$3, material=$4,
			lab_id=$5, overall_test_result=$6, deleted=$7, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.AssociatedCaseID, s.SampleDateTime, s.Material,
		s.LabID, s.OverallTestResult, s.Deleted)
	return err
}

func (r *repoPG) ListByCaseID(ctx context.Context, caseID uuid.UUID) ([]*Sample, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sampleCols+` FROM sample WHERE associated_case_id = $1 AND NOT deleted`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

const pathogenTestCols = `id, sample_id, lab_user_id, test_type, test_result, test_date_time,
	verified, created_at`

func scanPathogenTest(row pgx.Row) (*PathogenTest, error) {
	var t PathogenTest
	err := row.Scan(&t.ID, &t.SampleID, &t.LabUserID, &t.TestType, &t.TestResult,
		&t.TestDateTime, &t.Verified, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) CreatePathogenTest(ctx context.Context, t *PathogenTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pathogen_test (id, sample_id, lab_user_id, test_type, test_result,
			test_date_time, verified)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.ID, t.SampleID, t.LabUserID, t.TestType, t.TestResult, t.TestDateTime, t.Verified)
	return err
}

func (r *repoPG) ListPathogenTestsBySampleID(ctx context.Context, sampleID uuid.UUID) ([]*PathogenTest, error) {
	return r.listPathogenTests(ctx,
		`SELECT `+pathogenTestCols+` FROM pathogen_test WHERE sample_id = $1`, sampleID)
}

func (r *repoPG) ListPathogenTestsByCaseID(ctx context.Context, caseID uuid.UUID) ([]*PathogenTest, error) {
	return r.listPathogenTests(ctx, `
		SELECT t.id, t.sample_id, t.lab_user_id, t.test_type, t.test_result,
			t.test_date_time, t.verified, t.created_at
		FROM pathogen_test t
		JOIN sample s ON s.id = t.sample_id
		WHERE s.associated_case_id = $1 AND NOT s.deleted`, caseID)
}

func (r *repoPG) CountPathogenTestsByCaseID(ctx context.Context, caseID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT count(*)
		FROM pathogen_test t
		JOIN sample s ON s.id = t.sample_id
		WHERE s.associated_case_id = $1 AND NOT s.deleted`, caseID).Scan(&n)
	return n, err
}

func (r *repoPG) listPathogenTests(ctx context.Context, sql string, args ...interface{}) ([]*PathogenTest, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []*PathogenTest
	for rows.Next() {
		t, err := scanPathogenTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (r *repoPG) CreateAdditionalTest(ctx context.Context, t *AdditionalTest) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO additional_test (id, sample_id, test_date_time, observations)
		VALUES ($1,$2,$3,$4)`,
		t.ID, t.SampleID, t.TestDateTime, t.Observations)
	return err
}

func (r *repoPG) ListAdditionalTestsBySampleID(ctx context.Context, sampleID uuid.UUID) ([]*AdditionalTest, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, sample_id, test_date_time, observations, created_at
		FROM additional_test WHERE sample_id = $1`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []*AdditionalTest
	for rows.Next() {
		var t AdditionalTest
		if err := rows.Scan(&t.ID, &t.SampleID, &t.TestDateTime, &t.Observations, &t.CreatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, &t)
	}
	return tests, rows.Err()
}
