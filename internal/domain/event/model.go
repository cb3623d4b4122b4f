package event

import (
	"time"

	"github.com/google/uuid"
)

// EventParticipant links a person to an outbreak event. When the
// participation led to a confirmed case, ResultingCaseID points at it.
type EventParticipant struct {
	ID                     uuid.UUID  `json:"id"`
	EventID                uuid.UUID  `json:"event_id"`
	PersonID               uuid.UUID  `json:"person_id"`
	InvolvementDescription string     `json:"involvement_description,omitempty"`
	ResultingCaseID        *uuid.UUID `json:"resulting_case_id,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
}
