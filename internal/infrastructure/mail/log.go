package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/storefront/credential-service/internal/core/ports"
)

// LogMailer writes messages to the log instead of sending them. It is meant
// for local development; the body is only logged when IncludeBody is set
// because it carries reset secrets.
type LogMailer struct {
	log         zerolog.Logger
	includeBody bool
}

func NewLogMailer(log zerolog.Logger, includeBody bool) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "log_mailer").Logger(), includeBody: includeBody}
}

func (m *LogMailer) Send(_ context.Context, msg ports.Message) error {
	ev := m.log.Info().Str("to", msg.To).Str("subject", msg.Subject)
	if m.includeBody {
		ev = ev.Str("body", msg.Body)
	}
	ev.Msg("email suppressed")
	return nil
}
