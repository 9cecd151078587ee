// Package notify holds the outbound delivery adapters.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/adwatch/sentinel/models"
)

// SMTPConfig holds mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	// Timeout bounds one delivery attempt including retries.
	Timeout time.Duration
}

// SMTPSender implements the EmailPort over a plain SMTP relay. Transient
// delivery failures are retried with exponential backoff inside Send.
type SMTPSender struct {
	cfg    SMTPConfig
	logger zerolog.Logger

	// sendMail is swapped in tests.
	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a sender. Auth is skipped when Username is empty,
// which suits local relays and test containers.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPSender{
		cfg:      cfg,
		logger:   log.With().Str("component", "email").Logger(),
		sendMail: smtp.SendMail,
	}
}

// Send delivers one message, retrying transient failures until the
// configured timeout or context cancellation.
func (s *SMTPSender) Send(ctx context.Context, msg models.EmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	addr := s.cfg.Host + ":" + s.cfg.Port
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	payload := buildMIME(s.cfg.From, msg)

	attempt := func() error {
		return s.sendMail(addr, auth, s.cfg.From, []string{msg.To}, payload)
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err := backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		s.logger.Warn().Err(err).Dur("retry_in", wait).Str("to", msg.To).Msg("email delivery failed, retrying")
	})
	if err != nil {
		return fmt.Errorf("delivering email to %s: %w", msg.To, err)
	}

	s.logger.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("email delivered")
	return nil
}

// buildMIME assembles the RFC 5322 message with an HTML body.
func buildMIME(from string, msg models.EmailMessage) []byte {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n",
		from, msg.To, msg.Subject)
	return []byte(headers + msg.HTML)
}
