package treatment

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

func (r *repoPG) CreateTreatment(ctx context.Context, t *Treatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment (id, therapy_id, treatment_type, treatment_date_time, dose, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.TherapyID, t.TreatmentType, t.TreatmentDateTime, t.Dose, t.Notes)
	return err
}

func (r *repoPG) SaveTreatment(ctx context.Context, t *Treatment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatment SET therapy_id=$2, treatment_type=$3, treatment_date_time=$4,
			dose=$5, notes=$6
		WHERE id = $1`,
		t.ID, t.TherapyID, t.TreatmentType, t.TreatmentDateTime, t.Dose, t.Notes)
	return err
}

func (r *repoPG) ListTreatmentsByTherapyID(ctx context.Context, therapyID uuid.UUID) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, therapy_id, treatment_type, treatment_date_time, dose, notes, created_at
		FROM treatment WHERE therapy_id = $1`, therapyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var treatments []*Treatment
	for rows.Next() {
		var t Treatment
		if err := rows.Scan(&t.ID, &t.TherapyID, &t.TreatmentType, &t.TreatmentDateTime,
			&t.Dose, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		treatments = append(treatments, &t)
	}
	return treatments, rows.Err()
}

func (r *repoPG) CreatePrescription(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, therapy_id, prescription_type, prescription_start,
			prescription_end, frequency, dose)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.TherapyID, p.PrescriptionType, p.PrescriptionStart,
		p.PrescriptionEnd, p.Frequency, p.Dose)
	return err
}

func (r *repoPG) SavePrescription(ctx context.Context, p *Prescription) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription SET therapy_id=$2, prescription_type=$3, prescription_start=$4,
			prescription_end=$5, frequency=$6, dose=$7
		WHERE id = $1`,
		p.ID, p.TherapyID, p.PrescriptionType, p.PrescriptionStart,
		p.PrescriptionEnd, p.Frequency, p.Dose)
	return err
}

func (r *repoPG) ListPrescriptionsByTherapyID(ctx context.Context, therapyID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, therapy_id, prescription_type, prescription_start, prescription_end,
			frequency, dose, created_at
		FROM prescription WHERE therapy_id = $1`, therapyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prescriptions []*Prescription
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.TherapyID, &p.PrescriptionType, &p.PrescriptionStart,
			&p.PrescriptionEnd, &p.Frequency, &p.Dose, &p.CreatedAt); err != nil {
			return nil, err
		}
		prescriptions = append(prescriptions, &p)
	}
	return prescriptions, rows.Err()
}
