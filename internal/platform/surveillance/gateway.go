// Package surveillance integrates with an external surveillance reporting
// tool. All calls are best-effort side channels; failures are logged at the
// call site and never abort the triggering operation.
package surveillance

import (
	"context"

	"github.com/rs/zerolog"
)

// Gateway is the external surveillance tool collaborator. The engine
// notifies it when a case is deleted and no other case shares the same
// external identifier.
type Gateway interface {
	Enabled() bool
	NotifyCaseDeleted(ctx context.Context, externalID string) error
}

// NopGateway is used when no external tool is configured.
type NopGateway struct{}

func (NopGateway) Enabled() bool { return false }

func (NopGateway) NotifyCaseDeleted(context.Context, string) error { return nil }

// LogGateway records deletion notifications in the log. It stands in for a
// real HTTP gateway in development.
type LogGateway struct {
	log zerolog.Logger
}

func NewLogGateway(log zerolog.Logger) *LogGateway {
	return &LogGateway{log: log}
}

func (g *LogGateway) Enabled() bool { return true }

func (g *LogGateway) NotifyCaseDeleted(_ context.Context, externalID string) error {
	g.log.Info().Str("external_id", externalID).Msg("surveillance tool notified of case deletion")
	return nil
}
