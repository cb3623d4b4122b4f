package event

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateParticipant(ctx context.Context, ep *EventParticipant) error
	SaveParticipant(ctx context.Context, ep *EventParticipant) error
	ListByResultingCaseID(ctx context.Context, caseID uuid.UUID) ([]*EventParticipant, error)
}
