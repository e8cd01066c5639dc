// Package mailer delivers verification codes by email and generates
// the numeric codes themselves.
package mailer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"gopkg.in/gomail.v2"
)

// Sender delivers a password-reset code to the given address.
type Sender interface {
	SendPasswordResetEmail(ctx context.Context, email, code string) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates an SMTPSender from cfg.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, errors.New("smtp port must be > 0")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

// SendPasswordResetEmail sends a plain-text reset message carrying the
// code. gomail dials synchronously, so the context is only honored up
// front; the dialer's own timeouts bound the rest.
func (s *SMTPSender) SendPasswordResetEmail(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your password reset code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your password reset code is %s.\n\nIf you did not request a reset, you can ignore this message.\n", code))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// Discard is a Sender that drops every message. Used when no SMTP relay
// is configured and in tests.
type Discard struct{}

// SendPasswordResetEmail always succeeds without sending anything.
func (Discard) SendPasswordResetEmail(ctx context.Context, email, code string) error {
	return ctx.Err()
}

// GenerateVerificationCode returns a numeric code of the given length,
// one crypto/rand draw per digit. Digits outside 6..10 are rejected.
func GenerateVerificationCode(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}
