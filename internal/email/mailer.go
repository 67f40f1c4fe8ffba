package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Mailer sends transactional mail through the Resend API. When no API key is
// configured it logs the request and succeeds, so local development works
// without credentials.
type Mailer struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

func NewMailer(apiKey, from string, logger *slog.Logger) *Mailer {
	m := &Mailer{from: from, logger: logger}
	if apiKey != "" {
		m.client = resend.NewClient(apiKey)
	}
	return m
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	subject := "Reset Password"
	html := fmt.Sprintf(
		`<p>Hai richiesto un reset della password.</p>
<p>Clicca su questo link per procedere: <a href="%s">Reset Password</a></p>
<p>Questo link è valido solo per un'ora.</p>`, resetURL)

	if m.client == nil {
		m.logger.Info("email delivery disabled, skipping send", "to", to, "subject", subject)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend API error: %w", err)
	}

	m.logger.Info("password reset email sent", "email_id", sent.Id, "to", to)
	return nil
}
