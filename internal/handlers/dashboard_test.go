// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"codeberg.org/gabaylakad/backend/internal/auth"
	"codeberg.org/gabaylakad/backend/internal/handlers"
	"codeberg.org/gabaylakad/backend/internal/models"
	"codeberg.org/gabaylakad/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "maria@example.com", true)
	access, _ := a.login(t, "maria@example.com")

	rec, out := a.do(t, http.MethodGet, "/api/dashboard", "", access)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dashboard data", out["message"])
	assert.Equal(t, "maria@example.com", out["user"].(map[string]any)["email"])
	recent := out["recent"].([]any)
	require.Len(t, recent, 1)
	assert.Equal(t, models.ActionLogin, recent[0].(map[string]any)["action"])
	assert.Equal(t, "85%", out["battery"].(map[string]any)["batteryLevel"])
}

func TestDashboard_RecentIsCapped(t *testing.T) {
	a := newAPI(t)
	user := testutil.NewTestUser(t, a.repo, "maria@example.com", true)
	for range 7 {
		require.NoError(t, a.repo.AddHistory(context.Background(), user.ID, models.ActionProfileUpdate))
	}
	access, _ := a.login(t, "maria@example.com")

	_, out := a.do(t, http.MethodGet, "/api/dashboard", "", access)

	assert.Len(t, out["recent"], 5)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	a := newAPI(t)

	for _, path := range []string{"/api/dashboard", "/api/profile", "/api/history", "/api/location", "/api/sensor", "/api/battery"} {
		t.Run(path, func(t *testing.T) {
			rec, out := a.do(t, http.MethodGet, path, "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Unauthorized: No token provided", out["message"])
		})
	}

	rec, out := a.do(t, http.MethodGet, "/api/dashboard", "", "not-a-jwt")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized: Invalid or expired token", out["message"])
}

func TestUpdateProfile(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "maria@example.com", true)
	access, _ := a.login(t, "maria@example.com")

	body := `{"firstName":"Maria Clara","lastName":"Santos","phone_number":"09998887777","relationship":"Daughter",
		"blind_full_name":"Jose Santos","blind_age":73,"blind_phone_number":"09170000000"}`
	rec, out := a.do(t, http.MethodPut, "/api/profile", body, access)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := out["user"].(map[string]any)
	assert.Equal(t, "Maria Clara Santos", user["name"])
	assert.Equal(t, float64(73), user["blind_age"])
	assert.Equal(t, "maria@example.com", user["email"])

	_, out = a.do(t, http.MethodGet, "/api/history", "", access)
	records := out["records"].([]any)
	require.NotEmpty(t, records)
	assert.Equal(t, models.ActionProfileUpdate, records[0].(map[string]any)["action"])
}

func TestUpdateProfile_MissingFields(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "maria@example.com", true)
	access, _ := a.login(t, "maria@example.com")

	rec, out := a.do(t, http.MethodPut, "/api/profile", `{"firstName":"Maria"}`, access)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please fill in all required fields", out["message"])
}

func TestMockTelemetry(t *testing.T) {
	a := newAPI(t)
	testutil.NewTestUser(t, a.repo, "maria@example.com", true)
	access, _ := a.login(t, "maria@example.com")

	tests := []struct {
		path string
		key  string
	}{
		{"/api/location", "locations"},
		{"/api/sensor", "sensors"},
		{"/api/battery", "batteryLevel"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, out := a.do(t, http.MethodGet, tt.path, "", access)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, out, tt.key)
		})
	}
}

func TestProfile_DeletedUser(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	e := echo.New()
	h := handlers.New(repo, nil)

	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/api/profile", nil)
	ctx := auth.WithIdentity(c.Request().Context(), &auth.Identity{SubjectID: 999, Email: "gone@example.com"})
	c.SetRequest(c.Request().WithContext(ctx))

	require.NoError(t, h.Profile(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfile_NoIdentity(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	e := echo.New()
	h := handlers.New(repo, nil)

	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/api/profile", nil)

	require.NoError(t, h.Profile(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
