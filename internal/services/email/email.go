// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"codeberg.org/gabaylakad/backend/internal/config"
	"codeberg.org/gabaylakad/backend/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Service renders localized account emails and sends them via SMTP.
type Service struct {
	cfg         *config.SMTPConfig
	frontendURL string
	resetTTL    time.Duration
	deliver     func(*mail.Msg) error
}

// NewService creates a new email service. Links in emails point at frontendURL.
func NewService(cfg *config.SMTPConfig, frontendURL string, resetTTL time.Duration) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	s := &Service{
		cfg:         cfg,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		resetTTL:    resetTTL,
	}
	s.deliver = s.dialAndSend
	return s, nil
}

// SendVerification sends the six-digit verification code to a new caregiver.
func (s *Service) SendVerification(ctx context.Context, to, name, code string) error {
	subject := i18n.T(ctx, "email_verification_subject")
	body := i18n.TData(ctx, "email_verification_body", map[string]any{
		"Name": name,
		"Code": code,
	})

	return s.send(to, subject, body)
}

// SendPasswordReset sends the password reset link.
func (s *Service) SendPasswordReset(ctx context.Context, to, token string) error {
	subject := i18n.T(ctx, "email_reset_subject")
	body := i18n.TData(ctx, "email_reset_body", map[string]any{
		"ResetURL": s.ResetURL(to, token),
		"Minutes":  int(s.resetTTL.Minutes()),
	})

	return s.send(to, subject, body)
}

// ResetURL builds the frontend link that carries a reset token.
func (s *Service) ResetURL(to, token string) string {
	q := url.Values{}
	q.Set("email", to)
	q.Set("token", token)
	return s.frontendURL + "/reset-password?" + q.Encode()
}

func (s *Service) send(to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return s.deliver(msg)
}

// dialAndSend delivers a message over SMTP using go-mail.
func (s *Service) dialAndSend(msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Implicit TLS on 465, STARTTLS everywhere else
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// LogSender stands in for Service when no SMTP relay is configured. It only
// records that a message would have been sent; the body is never logged.
type LogSender struct{}

// SendVerification logs the verification email.
func (LogSender) SendVerification(ctx context.Context, to, _, _ string) error {
	slog.WarnContext(ctx, "email_not_sent", "to", to, "kind", "verification", "locale", i18n.GetLocale(ctx))
	return nil
}

// SendPasswordReset logs the password reset email.
func (LogSender) SendPasswordReset(ctx context.Context, to, _ string) error {
	slog.WarnContext(ctx, "email_not_sent", "to", to, "kind", "password_reset", "locale", i18n.GetLocale(ctx))
	return nil
}
