// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/gabaylakad/backend/internal/config"
	"codeberg.org/gabaylakad/backend/internal/handlers"
	"codeberg.org/gabaylakad/backend/internal/metrics"
	"codeberg.org/gabaylakad/backend/internal/middleware"
	"codeberg.org/gabaylakad/backend/internal/repository"
	"codeberg.org/gabaylakad/backend/internal/revocation"
	authsvc "codeberg.org/gabaylakad/backend/internal/services/auth"
	"codeberg.org/gabaylakad/backend/internal/services/session"
	"codeberg.org/gabaylakad/backend/internal/services/token"
	"codeberg.org/gabaylakad/backend/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingMailer struct {
	mu     sync.Mutex
	codes  map[string]string
	resets map[string]string
}

func (m *recordingMailer) SendVerification(_ context.Context, to, _, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, tok string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[to] = tok
	return nil
}

type api struct {
	e      *echo.Echo
	repo   *repository.Repository
	mr     *miniredis.Miniredis
	mailer *recordingMailer
}

func newAPI(t *testing.T) *api {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	mr, client := testutil.NewTestRedis(t)

	cfg := &config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  10 * time.Minute,
		RefreshTokenTTL: time.Hour,
		ResetTokenTTL:   15 * time.Minute,
		BcryptCost:      bcrypt.MinCost,
	}
	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	require.NoError(t, err)

	cache := revocation.New(client)
	mailer := &recordingMailer{codes: map[string]string{}, resets: map[string]string{}}
	svc := authsvc.NewService(repo, cfg, authsvc.Deps{
		Issuer:   issuer,
		Sessions: session.NewManager(repo, cache, cfg.RefreshTokenTTL),
		Cache:    cache,
		Mailer:   mailer,
		Metrics:  metrics.New(prometheus.NewRegistry()),
	})

	h := handlers.New(repo, cache)
	authH := handlers.NewAuth(svc)

	e := echo.New()
	a := e.Group("/api/auth")
	a.POST("/login", authH.Login)
	a.POST("/refresh-token", authH.RefreshToken)
	a.POST("/logout", authH.Logout)
	a.POST("/register", authH.Register)
	a.POST("/verify", authH.Verify)
	a.POST("/resend-verification", authH.ResendVerification)
	a.POST("/forgot-password", authH.ForgotPassword)
	a.POST("/reset-password", authH.ResetPassword)

	p := e.Group("/api", middleware.RequireAuth(svc))
	p.GET("/dashboard", h.Dashboard)
	p.GET("/profile", h.Profile)
	p.PUT("/profile", h.UpdateProfile)
	p.GET("/history", h.History)
	p.GET("/location", h.Location)
	p.GET("/sensor", h.Sensor)
	p.GET("/battery", h.Battery)

	e.GET("/api/health", h.Health)
	e.POST("/api/log", h.Log)

	return &api{e: e, repo: repo, mr: mr, mailer: mailer}
}

func (a *api) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := testutil.NewRequest(method, path, strings.NewReader(body))
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (a *api) login(t *testing.T, email string) (string, string) {
	t.Helper()
	rec, out := a.do(t, http.MethodPost, "/api/auth/login",
		`{"email":"`+email+`","password":"`+testutil.TestPassword+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return out["token"].(string), out["refreshToken"].(string)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	rec, out := a.do(t, http.MethodGet, "/api/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "API is running", out["message"])
}

func TestHealth_CacheDown(t *testing.T) {
	a := newAPI(t)
	a.mr.Close()

	rec, out := a.do(t, http.MethodGet, "/api/health", "", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", out["status"])
	assert.Equal(t, "cache unreachable", out["message"])
}

func TestLog(t *testing.T) {
	a := newAPI(t)

	rec, out := a.do(t, http.MethodPost, "/api/log", `{"message":"[Frontend] Dashboard loaded"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	rec, _ = a.do(t, http.MethodPost, "/api/log", `{}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
