// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"codeberg.org/gabaylakad/backend/internal/models"
	"codeberg.org/gabaylakad/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// RegisterParams holds the parameters for caregiver registration
type RegisterParams struct {
	FirstName        string
	LastName         string
	Email            string
	PhoneNumber      string
	ImpairmentLevel  string
	DeviceID         string
	Password         string
	Relationship     string
	BlindFullName    string
	BlindAge         int
	BlindPhoneNumber string
}

func (p *RegisterParams) normalize() {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = normalizeEmail(p.Email)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
	p.ImpairmentLevel = strings.TrimSpace(p.ImpairmentLevel)
	p.DeviceID = strings.TrimSpace(p.DeviceID)
	p.Relationship = strings.TrimSpace(p.Relationship)
	p.BlindFullName = strings.TrimSpace(p.BlindFullName)
	p.BlindPhoneNumber = strings.TrimSpace(p.BlindPhoneNumber)
}

func (p *RegisterParams) complete() bool {
	for _, v := range []string{p.FirstName, p.LastName, p.Email, p.PhoneNumber, p.ImpairmentLevel, p.DeviceID, p.Password, p.BlindFullName} {
		if v == "" {
			return false
		}
	}
	return p.BlindAge > 0
}

// Register creates an unverified caregiver account bound to a device and
// mails the verification code. No token is issued.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	params.normalize()
	if !params.complete() {
		return nil, ErrMissingFields
	}

	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	if err := s.passwordValidator.Validate(params.Password, params.Email); err != nil {
		return nil, err
	}

	// Device first: a taken serial number is the more common support case.
	if _, err := s.repo.GetUserByDeviceID(ctx, params.DeviceID); err == nil {
		return nil, ErrDeviceRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, unavailable(ctx, "register", err)
	}

	if _, err := s.repo.GetUserByEmail(ctx, params.Email); err == nil {
		return nil, ErrEmailRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, unavailable(ctx, "register", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, unavailable(ctx, "register", fmt.Errorf("generate code: %w", err))
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.config.BcryptCost)
	if err != nil {
		return nil, unavailable(ctx, "register", fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		Email:            params.Email,
		PasswordHash:     string(passwordHash),
		FirstName:        params.FirstName,
		LastName:         params.LastName,
		Name:             models.FullName(params.FirstName, params.LastName),
		PhoneNumber:      params.PhoneNumber,
		ImpairmentLevel:  params.ImpairmentLevel,
		DeviceID:         params.DeviceID,
		Relationship:     params.Relationship,
		BlindFullName:    params.BlindFullName,
		BlindAge:         params.BlindAge,
		BlindPhoneNumber: params.BlindPhoneNumber,
		VerificationCode: &code,
	}

	switch err := s.repo.CreateUser(ctx, user); {
	case errors.Is(err, repository.ErrDuplicateDevice):
		return nil, ErrDeviceRegistered
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, ErrEmailRegistered
	case err != nil:
		return nil, unavailable(ctx, "register", err)
	}

	slog.InfoContext(ctx, "register_success", "user_id", user.ID)
	s.sendVerification(ctx, user, code)

	return user, nil
}

// Verify checks the emailed code and activates the account.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return ErrMissingFields
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return unavailable(ctx, "verify", err)
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if !codesMatch(code, user.PendingCode()) {
		slog.WarnContext(ctx, "verify_failed", "user_id", user.ID, "reason", "code_mismatch")
		return ErrInvalidCode
	}

	if err := s.repo.MarkUserVerified(ctx, user.ID); err != nil {
		return unavailable(ctx, "verify", err)
	}

	s.recordHistory(ctx, user.ID, models.ActionVerified)
	slog.InfoContext(ctx, "verify_success", "user_id", user.ID)
	return nil
}

// ResendVerification issues a fresh code to an unverified account. Like the
// reset request it reports nothing about whether the account exists.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.ErrorContext(ctx, "resend_verification_failed", "error", err)
		}
		return nil
	}
	if user.IsVerified {
		return nil
	}

	code, err := generateCode()
	if err != nil {
		slog.ErrorContext(ctx, "resend_verification_failed", "user_id", user.ID, "error", err)
		return nil
	}
	if err := s.repo.SetVerificationCode(ctx, user.ID, code); err != nil {
		slog.ErrorContext(ctx, "resend_verification_failed", "user_id", user.ID, "error", err)
		return nil
	}

	s.sendVerification(ctx, user, code)
	return nil
}

// sendVerification mails the code. The account exists either way, so a
// failed send is logged and the caregiver can ask for a new code.
func (s *Service) sendVerification(ctx context.Context, user *models.User, code string) {
	if err := s.mailer.SendVerification(ctx, user.Email, user.Name, code); err != nil {
		slog.ErrorContext(ctx, "verification_email_failed", "user_id", user.ID, "error", err)
		s.metrics.Email("verification", "error")
		return
	}
	s.metrics.Email("verification", "sent")
}
