package mail

import (
	"context"
	"errors"
	"fmt"

	"campus-openings/internal/metrics"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

type ResendMailer struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

func NewResendMailer(apiKey, from string, logger zerolog.Logger) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger.With().Str("component", "mail").Logger(),
	}
}

func (m *ResendMailer) SendVerification(ctx context.Context, to, fullName, link string) error {
	html, err := renderVerification(fullName, link)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: verificationSubject,
		Html:    html,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		metrics.EmailsSent.WithLabelValues("failed").Inc()
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			m.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w", rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend: %w", err)
	}

	metrics.EmailsSent.WithLabelValues("sent").Inc()
	m.logger.Info().Str("email_id", sent.Id).Str("to", to).Msg("verification email sent")
	return nil
}
