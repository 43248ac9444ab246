// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth implements the account flows of the caregiver app and the
// per-request authentication check. It coordinates the credential store,
// the token issuer, the refresh session manager and the revocation cache.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"codeberg.org/gabaylakad/backend/internal/config"
	"codeberg.org/gabaylakad/backend/internal/metrics"
	"codeberg.org/gabaylakad/backend/internal/repository"
	"codeberg.org/gabaylakad/backend/internal/revocation"
	"codeberg.org/gabaylakad/backend/internal/services/session"
	"codeberg.org/gabaylakad/backend/internal/services/token"
)

var (
	ErrMissingFields       = errors.New("missing required fields")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrUserNotFound        = errors.New("user not found")
	ErrNotVerified         = errors.New("email not verified")
	ErrBadCredential       = errors.New("incorrect password")
	ErrAlreadyVerified     = errors.New("user already verified")
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrDeviceRegistered    = errors.New("device already registered")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrUnauthenticated     = errors.New("no bearer token")
	ErrBlacklisted         = errors.New("token revoked")
	ErrInvalidToken        = errors.New("token invalid or expired")
	ErrUnavailable         = errors.New("service unavailable")
)

// Mailer delivers the account emails.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, code string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// Deps are the collaborators of a Service.
type Deps struct {
	Issuer   *token.Issuer
	Sessions *session.Manager
	Cache    *revocation.Cache
	Mailer   Mailer
	Metrics  *metrics.Metrics
}

type Service struct {
	repo              *repository.Repository
	config            *config.AuthConfig
	issuer            *token.Issuer
	sessions          *session.Manager
	cache             *revocation.Cache
	mailer            Mailer
	metrics           *metrics.Metrics
	passwordValidator *PasswordValidator
	now               func() time.Time
}

func NewService(repo *repository.Repository, cfg *config.AuthConfig, deps Deps) *Service {
	return &Service{
		repo:              repo,
		config:            cfg,
		issuer:            deps.Issuer,
		sessions:          deps.Sessions,
		cache:             deps.Cache,
		mailer:            deps.Mailer,
		metrics:           deps.Metrics,
		passwordValidator: DefaultPasswordValidator(),
		now:               time.Now,
	}
}

// TokenPair is handed to the client after login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// unavailable logs a downstream failure and hides it behind ErrUnavailable.
func unavailable(ctx context.Context, op string, err error) error {
	slog.ErrorContext(ctx, op+"_failed", "error", err)
	return ErrUnavailable
}

// recordHistory writes an activity entry. Failures never fail the flow.
func (s *Service) recordHistory(ctx context.Context, userID int64, action string) {
	if err := s.repo.AddHistory(ctx, userID, action); err != nil {
		slog.WarnContext(ctx, "history_write_failed", "user_id", userID, "action", action, "error", err)
	}
}
