package infra

import (
	"context"
	"fmt"
	"net/smtp"

	"same-inventory/internal/config"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
)

// Mailer sends the password reset link.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// NewMailer picks SMTP when a host is configured and the log mailer otherwise.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST not set, reset links will be logged")
		return LogMailer{}
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

type SMTPMailer struct {
	host     string
	user     string
	password string
	from     string
	addr     string
}

func (m *SMTPMailer) SendPasswordReset(_ context.Context, to, link string) error {
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = "Redefinição de senha"
	e.Text = []byte(resetBody(link))

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send reset to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes the link to the log; used in development.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	log.Info().Str("to", to).Str("link", link).Msg("password reset requested")
	return nil
}

func resetBody(link string) string {
	return "Recebemos um pedido para redefinir sua senha.\n\n" +
		"Abra o link abaixo para escolher uma nova senha:\n" + link + "\n\n" +
		"Se não foi você, ignore este e-mail.\n"
}
