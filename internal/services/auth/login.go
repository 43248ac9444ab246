// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"codeberg.org/gabaylakad/backend/internal/models"
	"codeberg.org/gabaylakad/backend/internal/repository"
	"codeberg.org/gabaylakad/backend/internal/revocation"
	"codeberg.org/gabaylakad/backend/internal/services/session"
	"codeberg.org/gabaylakad/backend/internal/services/token"
	"golang.org/x/crypto/bcrypt"
)

// Login checks the credentials of a verified caregiver and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.Login("missing_fields")
		return nil, nil, ErrMissingFields
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		slog.WarnContext(ctx, "login_failed", "email", email, "reason", "user_not_found")
		s.metrics.Login("user_not_found")
		return nil, nil, ErrUserNotFound
	}
	if err != nil {
		return nil, nil, unavailable(ctx, "login", err)
	}

	if !user.IsVerified {
		slog.WarnContext(ctx, "login_failed", "user_id", user.ID, "reason", "not_verified")
		s.metrics.Login("not_verified")
		return nil, nil, ErrNotVerified
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "login_failed", "user_id", user.ID, "reason", "invalid_password")
		s.metrics.Login("bad_credential")
		return nil, nil, ErrBadCredential
	}

	access, expiresAt, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, nil, unavailable(ctx, "login", err)
	}
	refresh, err := s.sessions.Start(ctx, user)
	if err != nil {
		return nil, nil, unavailable(ctx, "login", err)
	}

	s.recordHistory(ctx, user.ID, models.ActionLogin)
	s.metrics.Login("success")
	slog.InfoContext(ctx, "login_success", "user_id", user.ID)

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, user, nil
}

// Refresh exchanges a refresh token for a new access token and a new
// refresh token. The presented refresh token stops working.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		s.metrics.Refresh("missing_fields")
		return nil, ErrMissingFields
	}

	next, userID, err := s.sessions.Rotate(ctx, refreshToken)
	if errors.Is(err, session.ErrInvalidOrExpired) {
		s.metrics.Refresh("invalid")
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		s.metrics.Refresh("error")
		return nil, unavailable(ctx, "refresh", err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.metrics.Refresh("error")
		return nil, unavailable(ctx, "refresh", err)
	}

	access, expiresAt, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		s.metrics.Refresh("error")
		return nil, unavailable(ctx, "refresh", err)
	}

	s.metrics.Refresh("success")
	return &TokenPair{AccessToken: access, RefreshToken: next, ExpiresAt: expiresAt}, nil
}

// Logout revokes an access token for the rest of its lifetime and, when
// given, the refresh session. Cache failures are only logged unless strict
// logout is configured.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" {
		return ErrMissingFields
	}

	var failed error
	if remaining := s.issuer.Remaining(accessToken); remaining > 0 {
		if err := s.cache.Put(ctx, revocation.BlacklistKey(accessToken), "1", remaining); err != nil {
			slog.ErrorContext(ctx, "blacklist_write_failed", "error", err)
			s.metrics.BlacklistWrite("error")
			failed = err
		} else {
			s.metrics.BlacklistWrite("ok")
		}
	}

	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		slog.ErrorContext(ctx, "session_revoke_failed", "error", err)
		failed = err
	}

	if failed != nil && s.config.StrictLogout {
		return ErrUnavailable
	}
	return nil
}

// Identity is the result of a successful Authenticate call.
type Identity struct {
	SubjectID    int64
	Email        string
	RenewedToken string
}

// Authenticate runs the per-request check on an Authorization header value:
// bearer extraction, blacklist lookup, verification and sliding renewal.
func (s *Service) Authenticate(ctx context.Context, authorization string) (*Identity, error) {
	raw, ok := BearerToken(authorization)
	if !ok {
		s.metrics.Gate("unauthenticated")
		return nil, ErrUnauthenticated
	}

	_, revoked, err := s.cache.Get(ctx, revocation.BlacklistKey(raw))
	if err != nil {
		s.metrics.Gate("unavailable")
		return nil, unavailable(ctx, "blacklist_lookup", err)
	}
	if revoked {
		s.metrics.Gate("blacklisted")
		return nil, ErrBlacklisted
	}

	claims, err := s.issuer.Verify(raw)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, token.ErrExpired) {
			reason = "expired"
		}
		slog.DebugContext(ctx, "token_rejected", "reason", reason)
		s.metrics.Gate(reason)
		return nil, ErrInvalidToken
	}
	subjectID, _ := claims.SubjectID()

	renewed, _, err := s.issuer.Issue(subjectID, claims.Email)
	if err != nil {
		s.metrics.Gate("unavailable")
		return nil, unavailable(ctx, "token_renewal", err)
	}

	s.metrics.Gate("allowed")
	return &Identity{SubjectID: subjectID, Email: claims.Email, RenewedToken: renewed}, nil
}

// BearerToken extracts the token from "Bearer <token>".
func BearerToken(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
