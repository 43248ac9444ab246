// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"log/slog"

	"codeberg.org/gabaylakad/backend/internal/models"
	"codeberg.org/gabaylakad/backend/internal/repository"
	"codeberg.org/gabaylakad/backend/internal/revocation"
	"codeberg.org/gabaylakad/backend/internal/services/session"
	"golang.org/x/crypto/bcrypt"
)

// RequestPasswordReset mails a reset link when the account exists. The
// caller sees the same outcome either way.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.ErrorContext(ctx, "password_reset_request_failed", "error", err)
		}
		return nil
	}

	plaintext, hash, err := session.NewToken()
	if err != nil {
		slog.ErrorContext(ctx, "password_reset_request_failed", "user_id", user.ID, "error", err)
		return nil
	}

	expiresAt := s.now().Add(s.config.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		slog.ErrorContext(ctx, "password_reset_request_failed", "user_id", user.ID, "error", err)
		return nil
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, plaintext); err != nil {
		slog.ErrorContext(ctx, "password_reset_email_failed", "user_id", user.ID, "error", err)
		s.metrics.Email("password_reset", "error")
		return nil
	}

	s.metrics.Email("password_reset", "sent")
	slog.InfoContext(ctx, "password_reset_requested", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password using a reset token. The refresh session
// of the account ends as well.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" || newPassword == "" {
		return ErrMissingFields
	}

	user, err := s.repo.GetUserByResetTokenHash(ctx, session.HashToken(resetToken))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return unavailable(ctx, "password_reset", err)
	}
	if !user.ResetTokenValid(s.now()) {
		slog.WarnContext(ctx, "password_reset_failed", "user_id", user.ID, "reason", "expired")
		return ErrInvalidResetToken
	}

	if err := s.passwordValidator.Validate(newPassword, user.Email); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.config.BcryptCost)
	if err != nil {
		return unavailable(ctx, "password_reset", err)
	}

	if err := s.repo.ResetPassword(ctx, user.ID, string(passwordHash)); err != nil {
		return unavailable(ctx, "password_reset", err)
	}

	// The record no longer holds the hash, so a leftover entry cannot rotate.
	if user.RefreshTokenHash != nil {
		if err := s.cache.Delete(ctx, revocation.SessionKey(*user.RefreshTokenHash)); err != nil {
			slog.WarnContext(ctx, "session_drop_failed", "user_id", user.ID, "error", err)
		}
	}

	s.recordHistory(ctx, user.ID, models.ActionPasswordReset)
	slog.InfoContext(ctx, "password_reset_success", "user_id", user.ID)
	return nil
}
