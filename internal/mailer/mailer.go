package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"student_connect/internal/config"
)

// Mailer delivers mail synchronously over SMTP. A returned error is the
// signal the account lifecycle uses for its fallback-verify policy.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func New(cfg config.SMTP) *Mailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     from,
	}
}

func (m *Mailer) Send(_ context.Context, to, subject, text, html string) error {
	const op = "mailer.Send"

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)
	msg.AddAlternative("text/html", html)

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
