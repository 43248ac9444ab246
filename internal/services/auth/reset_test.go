// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"testing"
	"time"

	"codeberg.org/gabaylakad/backend/internal/revocation"
	"codeberg.org/gabaylakad/backend/internal/services/session"
	"codeberg.org/gabaylakad/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const newPassword = "Bagong#Susi2025"

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, f.repo, "maria@example.com", true)

	first := f.svc.RequestPasswordReset(ctx, "nobody@example.com")
	second := f.svc.RequestPasswordReset(ctx, "nobody@example.com")

	assert.NoError(t, first)
	assert.Equal(t, first, second)
	assert.Empty(t, f.mailer.resets)

	got, err := f.repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ResetTokenHash)
}

func TestRequestPasswordReset_Missing(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.svc.RequestPasswordReset(context.Background(), "  "), ErrMissingFields)
}

func TestRequestPasswordReset_StoresOnlyHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, f.repo, "maria@example.com", true)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "maria@example.com"))

	require.Len(t, f.mailer.resets, 1)
	raw := f.mailer.resets[0].secret

	got, err := f.repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResetTokenHash)
	assert.Equal(t, session.HashToken(raw), *got.ResetTokenHash)
	assert.NotEqual(t, raw, *got.ResetTokenHash)
	require.NotNil(t, got.ResetTokenExpiry)
	assert.WithinDuration(t, f.now.Add(15*time.Minute), *got.ResetTokenExpiry, time.Second)
}

func TestRequestPasswordReset_MailFailureIsSilent(t *testing.T) {
	f := newFixture(t)
	testutil.NewTestUser(t, f.repo, "maria@example.com", true)
	f.mailer.err = errMailDown

	assert.NoError(t, f.svc.RequestPasswordReset(context.Background(), "maria@example.com"))
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, f.repo, "maria@example.com", true)
	pair, _, err := f.svc.Login(ctx, user.Email, testutil.TestPassword)
	require.NoError(t, err)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, user.Email))
	raw := f.mailer.resets[0].secret

	require.NoError(t, f.svc.ResetPassword(ctx, raw, newPassword))

	got, err := f.repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte(newPassword)))
	assert.Nil(t, got.ResetTokenHash)
	assert.Nil(t, got.ResetTokenExpiry)
	assert.Nil(t, got.RefreshTokenHash)
	assert.False(t, f.mr.Exists(revocation.SessionKey(session.HashToken(pair.RefreshToken))))

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// The token is spent.
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, raw, newPassword), ErrInvalidResetToken)

	_, _, err = f.svc.Login(ctx, user.Email, newPassword)
	assert.NoError(t, err)
}

func TestResetPassword_ExpiredTokenKeepsPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, f.repo, "maria@example.com", true)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, user.Email))
	raw := f.mailer.resets[0].secret

	f.advance(16 * time.Minute)
	err := f.svc.ResetPassword(ctx, raw, newPassword)

	assert.ErrorIs(t, err, ErrInvalidResetToken)
	got, err := f.repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
}

func TestResetPassword_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, f.repo, "maria@example.com", true)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, user.Email))
	raw := f.mailer.resets[0].secret

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "", newPassword), ErrMissingFields)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, raw, ""), ErrMissingFields)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "unknown", newPassword), ErrInvalidResetToken)

	var pwErr *PasswordValidationError
	assert.ErrorAs(t, f.svc.ResetPassword(ctx, raw, "12345678"), &pwErr)
}
