package document

import (
	"time"

	"github.com/google/uuid"
)

type RelatedEntityType string

const (
	RelatedCase    RelatedEntityType = "CASE"
	RelatedContact RelatedEntityType = "CONTACT"
)

// Document is a stored file attached to a surveillance entity. Only the
// relation is managed here; the blob itself lives wherever the upload layer
// put it.
type Document struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	MimeType          string            `json:"mime_type,omitempty"`
	Size              int64             `json:"size"`
	StorageReference  string            `json:"storage_reference"`
	RelatedEntityType RelatedEntityType `json:"related_entity_type"`
	RelatedEntityID   uuid.UUID         `json:"related_entity_id"`
	UploadingUserID   uuid.UUID         `json:"uploading_user_id"`
	CreatedAt         time.Time         `json:"created_at"`
}
