package smtp

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/go-otp-api/internal/config"
)

// Mailer delivers passcodes over SMTP.
type Mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

// Deliver sends the plaintext passcode to the address. The code has already
// been durably persisted by the time this runs, so a slow or failing SMTP
// server never holds a transaction open.
func (m *Mailer) Deliver(_ context.Context, to, code string) error {
	subject := "Your sign-in code"
	body := fmt.Sprintf("Your one-time sign-in code is %s. It expires shortly; if you did not request it, ignore this email.", code)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
