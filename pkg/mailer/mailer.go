package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/vbkouture/cencad-backend/pkg/config"
	"github.com/vbkouture/cencad-backend/pkg/logger"
)

// Invite carries everything the invitation email needs.
type Invite struct {
	To          string
	Name        string
	CompanyName string
	TempPass    string
}

// Mailer delivers transactional email for the corporate flows.
type Mailer interface {
	SendTraineeInvite(ctx context.Context, invite Invite) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTP returns a Mailer backed by the configured SMTP relay.
func NewSMTP(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// SendTraineeInvite delivers the invitation with the one-time password.
func (m *SMTPMailer) SendTraineeInvite(_ context.Context, invite Invite) error {
	if invite.To == "" {
		return fmt.Errorf("recipient is required")
	}

	subject := fmt.Sprintf("%s invited you to corporate training", invite.CompanyName)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\n%s has invited you to their corporate training program.\r\n\r\nYour temporary password: %s\r\n\r\nYou will be asked to change it on first sign-in.\r\n",
		invite.Name, invite.CompanyName, invite.TempPass,
	)

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + invite.To,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{invite.To}, []byte(msg)); err != nil {
		return fmt.Errorf("sending invite email: %w", err)
	}
	return nil
}

// LogMailer records invites to the application log instead of delivering them.
// Used in dev and in tests where no relay is available.
type LogMailer struct {
	logg *logger.Logger
}

// NewLogMailer returns a Mailer that only logs.
func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

// SendTraineeInvite logs the invite recipient. The one-time password is never logged.
func (m *LogMailer) SendTraineeInvite(ctx context.Context, invite Invite) error {
	if m.logg != nil {
		ctx = m.logg.WithField(ctx, "recipient", invite.To)
		m.logg.Info(ctx, "trainee invite suppressed (log-only mailer)")
	}
	return nil
}
