package document

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

func (r *repoPG) Create(ctx context.Context, d *Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO document (id, name, mime_type, size, storage_reference,
			related_entity_type, related_entity_id, uploading_user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.Name, d.MimeType, d.Size, d.StorageReference,
		d.RelatedEntityType, d.RelatedEntityID, d.UploadingUserID)
	return err
}

func (r *repoPG) Save(ctx context.Context, d *Document) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE document SET name=$2, mime_type=$3, size=$4, storage_reference=$5,
			related_entity_type=$6, related_entity_id=$7, uploading_user_id=$8
		WHERE id = $1`,
		d.ID, d.Name, d.MimeType, d.Size, d.StorageReference,
		d.RelatedEntityType, d.RelatedEntityID, d.UploadingUserID)
	return err
}

func (r *repoPG) ListRelatedToCase(ctx context.Context, caseID uuid.UUID) ([]*Document, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, mime_type, size, storage_reference, related_entity_type,
			related_entity_id, uploading_user_id, created_at
		FROM document
		WHERE related_entity_type = $1 AND related_entity_id = $2`,
		RelatedCase, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.MimeType, &d.Size, &d.StorageReference,
			&d.RelatedEntityType, &d.RelatedEntityID, &d.UploadingUserID, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}
