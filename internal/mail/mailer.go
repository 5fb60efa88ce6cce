package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// Mailer sends account emails. Implementations may be swapped without
// touching callers.
type Mailer interface {
	SendVerification(ctx context.Context, to, fullName, link string) error
}

// LogMailer writes emails to the log instead of sending them. It is used
// when no Resend API key is configured.
type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "mail").Logger()}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, fullName, link string) error {
	m.logger.Info().
		Str("to", to).
		Str("full_name", fullName).
		Str("link", link).
		Msg("verification email (dev mode, not sent)")
	return nil
}
