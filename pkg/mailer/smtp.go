package mailer

import (
	"context"
	"fmt"

	"github.com/fourmis-app/fourmis-backend/pkg/config"
	"gopkg.in/gomail.v2"
)

// SMTP delivers messages through a plain SMTP relay.
type SMTP struct {
	cfg config.SMTPConfig
}

// NewSMTP builds an SMTP sender from configuration.
func NewSMTP(cfg config.SMTPConfig) (*SMTP, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("smtp host is required")
	}
	return &SMTP{cfg: cfg}, nil
}

// Send dials the relay and delivers a single message. gomail dials per call,
// which is fine at invitation-batch volume.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	}
}
