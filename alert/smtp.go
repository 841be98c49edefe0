package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig configures the default email sender.
type SMTPConfig struct {
	Addr     string // host:port of the SMTP server
	From     string
	Username string
	Password string
}

type smtpSender struct {
	cfg SMTPConfig
}

// NewSMTPSender returns an EmailSender backed by net/smtp, or nil when no
// server address is configured.
func NewSMTPSender(cfg SMTPConfig) EmailSender {
	if cfg.Addr == "" {
		return nil
	}
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, to []string, subject, body string) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		host := s.cfg.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, host)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.cfg.From, strings.Join(to, ", "), subject, body)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.cfg.Addr, auth, s.cfg.From, to, []byte(msg))
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
