package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

type Sender interface {
	Send(to string, subject string, body string) error
}

// SMTPSender delivers mail over plain SMTP. Auth is optional so local
// Mailpit setups work without credentials.
type SMTPSender struct {
	host string
	addr string
	from string
	auth smtp.Auth
}

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	host := strings.TrimSpace(cfg.Host)
	port := strings.TrimSpace(cfg.Port)
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = "no-reply@elitebarber.local"
	}
	s := &SMTPSender{
		host: host,
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return s
}

func (s *SMTPSender) Send(to string, subject string, body string) error {
	msg := buildMessage(s.from, to, subject, body)
	return smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg))
}

func buildMessage(from, to, subject, body string) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		body,
	)
}
