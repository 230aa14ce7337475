package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// minCredentialLength is the shortest username, password or recipient
// accepted as configured.
const minCredentialLength = 5

// EmailConfig holds SMTP settings for the summary email.
type EmailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Recipient string
}

// EmailSender sends the HTML summary through an authenticated SMTP server.
type EmailSender struct {
	cfg    EmailConfig
	logger *slog.Logger
	send   func(ctx context.Context, msg *mail.Msg) error
}

// NewEmailSender creates an EmailSender.
func NewEmailSender(cfg EmailConfig, logger *slog.Logger) *EmailSender {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &EmailSender{cfg: cfg, logger: logger.With("component", "email_sender")}
	s.send = s.dialAndSend
	return s
}

// Name implements Sender.
func (s *EmailSender) Name() string { return "email" }

// Configured reports whether username, password and recipient are all set.
func (s *EmailSender) Configured() bool {
	return len(s.cfg.Username) >= minCredentialLength &&
		len(s.cfg.Password) >= minCredentialLength &&
		len(s.cfg.Recipient) >= minCredentialLength
}

// Send implements Sender.
func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if !s.Configured() {
		s.logger.DebugContext(ctx, "Email credentials not configured, skipping")
		return nil
	}

	m := mail.NewMsg()
	if err := m.From(s.cfg.Username); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(s.cfg.Recipient); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	s.logger.InfoContext(ctx, "Sending email", "recipient", s.cfg.Recipient)
	if err := s.send(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.InfoContext(ctx, "Email sent", "recipient", s.cfg.Recipient)
	return nil
}

func (s *EmailSender) dialAndSend(ctx context.Context, m *mail.Msg) error {
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, m)
}
