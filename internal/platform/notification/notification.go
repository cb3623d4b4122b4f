// Package notification is the best-effort message dispatch collaborator.
// Delivery failures are logged by callers and never abort the operation
// that triggered them.
package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Recipient identifies one notification target. The engine resolves users
// to recipients before dispatch so this package stays independent of the
// user model.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// Notifier dispatches a message to a set of recipients. Implementations may
// deliver via email, SMS or both; a returned error means no recipient could
// be reached, partial delivery is not an error.
type Notifier interface {
	Notify(ctx context.Context, recipients []Recipient, subject, body string) error
}

// LogNotifier writes notifications to the structured log instead of
// delivering them. It is the default in development setups.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, recipients []Recipient, subject, body string) error {
	if len(recipients) == 0 {
		return errors.New("no recipients")
	}
	for _, r := range recipients {
		n.log.Info().
			Str("recipient", r.Name).
			Str("subject", subject).
			Msg("notification dispatched")
	}
	_ = body
	return nil
}

// MemoryNotifier records notifications for inspection in tests.
type MemoryNotifier struct {
	mu   sync.Mutex
	Sent []SentMessage
}

type SentMessage struct {
	Recipients []Recipient
	Subject    string
	Body       string
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Notify(_ context.Context, recipients []Recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, SentMessage{Recipients: recipients, Subject: subject, Body: body})
	return nil
}
