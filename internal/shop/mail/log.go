package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes emails to the log instead of sending them. It is used
// when no SMTP relay is configured.
type LogMailer struct {
	Logger *slog.Logger
}

var _ Mailer = (*LogMailer)(nil)

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, to Recipient, link string) error {
	return m.log(ctx, tmplResetPassword, to, link)
}

func (m *LogMailer) SendVerificationEmail(ctx context.Context, to Recipient, link string) error {
	return m.log(ctx, tmplVerifyEmail, to, link)
}

func (m *LogMailer) log(ctx context.Context, name string, to Recipient, link string) error {
	msg, err := render(name, to, link)
	if err != nil {
		return err
	}
	m.Logger.InfoContext(ctx, "email not sent, no smtp relay configured",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("link", link),
	)
	return nil
}
