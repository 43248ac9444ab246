// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/gabaylakad/backend/internal/config"
	"codeberg.org/gabaylakad/backend/internal/metrics"
	"codeberg.org/gabaylakad/backend/internal/repository"
	"codeberg.org/gabaylakad/backend/internal/revocation"
	"codeberg.org/gabaylakad/backend/internal/services/session"
	"codeberg.org/gabaylakad/backend/internal/services/token"
	"codeberg.org/gabaylakad/backend/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	to     string
	name   string
	secret string
}

type fakeMailer struct {
	mu            sync.Mutex
	err           error
	verifications []sentMail
	resets        []sentMail
}

func (m *fakeMailer) SendVerification(_ context.Context, to, name, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.verifications = append(m.verifications, sentMail{to: to, name: name, secret: code})
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.resets = append(m.resets, sentMail{to: to, secret: tok})
	return nil
}

type fixture struct {
	svc    *Service
	repo   *repository.Repository
	mr     *miniredis.Miniredis
	mailer *fakeMailer
	issuer *token.Issuer
	now    time.Time
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
	f.mr.FastForward(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	mr, client := testutil.NewTestRedis(t)

	f := &fixture{
		repo:   repo,
		mr:     mr,
		mailer: &fakeMailer{},
		now:    time.Now().UTC().Truncate(time.Second),
	}

	cfg := &config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  10 * time.Minute,
		RefreshTokenTTL: time.Hour,
		ResetTokenTTL:   15 * time.Minute,
		BcryptCost:      bcrypt.MinCost,
	}

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, token.WithClock(f.clock))
	require.NoError(t, err)
	f.issuer = issuer

	cache := revocation.New(client)
	f.svc = NewService(repo, cfg, Deps{
		Issuer:   issuer,
		Sessions: session.NewManager(repo, cache, cfg.RefreshTokenTTL),
		Cache:    cache,
		Mailer:   f.mailer,
		Metrics:  metrics.New(prometheus.NewRegistry()),
	})
	f.svc.now = f.clock
	return f
}

func validRegistration() RegisterParams {
	return RegisterParams{
		FirstName:       "Maria",
		LastName:        "Santos",
		Email:           "maria@example.com",
		PhoneNumber:     "09171234567",
		ImpairmentLevel: "total",
		DeviceID:        "GL-0001",
		Password:        "Tungkod&Gabay7",
		Relationship:    "Daughter",
		BlindFullName:   "Jose Santos",
		BlindAge:        72,
	}
}

var errMailDown = errors.New("smtp down")
