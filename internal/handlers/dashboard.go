// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/gabaylakad/backend/internal/auth"
	"codeberg.org/gabaylakad/backend/internal/models"
	"codeberg.org/gabaylakad/backend/internal/repository"
	"github.com/labstack/echo/v4"
)

const recentHistoryLimit = 5

// Device telemetry is not collected yet; these snapshots stand in for it.
type batterySnapshot struct {
	Level string `json:"batteryLevel"`
	Time  string `json:"batteryTime"`
}

type locationPoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

type sensorReading struct {
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	mockBattery  = batterySnapshot{Level: "85%", Time: "6h 30m remaining"}
	mockLocation = locationPoint{Lat: 14.5995, Lng: 120.9842, Timestamp: time.Date(2025, 9, 27, 10, 0, 0, 0, time.UTC)}
	mockSensor   = sensorReading{Type: "Temperature", Value: 36.5, Unit: "C", Timestamp: time.Date(2025, 9, 27, 10, 5, 0, 0, time.UTC)}
)

// currentUser loads the caller's account. On failure it has already written
// the response and returns a nil user.
func (h *Handlers) currentUser(c echo.Context) (*models.User, error) {
	id := auth.GetIdentity(c.Request().Context())
	if id == nil {
		return nil, message(c, http.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.repo.GetUserByID(c.Request().Context(), id.SubjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, message(c, http.StatusNotFound, msgUserMissing)
	}
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "user_lookup_failed", "user_id", id.SubjectID, "error", err)
		return nil, message(c, http.StatusServiceUnavailable, msgUnavailable)
	}
	return user, nil
}

// Dashboard returns the caller's profile, recent activity and device status.
func (h *Handlers) Dashboard(c echo.Context) error {
	user, err := h.currentUser(c)
	if user == nil {
		return err
	}

	ctx := c.Request().Context()
	recent, err := h.repo.ListHistory(ctx, user.ID, recentHistoryLimit)
	if err != nil {
		slog.WarnContext(ctx, "history_lookup_failed", "user_id", user.ID, "error", err)
		recent = []models.HistoryEntry{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":  "Dashboard data",
		"user":     user,
		"recent":   recent,
		"battery":  mockBattery,
		"location": mockLocation,
	})
}

// Profile returns the caller's account.
func (h *Handlers) Profile(c echo.Context) error {
	user, err := h.currentUser(c)
	if user == nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Profile data", "user": user})
}

type profileRequest struct {
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	PhoneNumber      string  `json:"phone_number"`
	Relationship     string  `json:"relationship"`
	BlindFullName    string  `json:"blind_full_name"`
	BlindAge         flexInt `json:"blind_age"`
	BlindPhoneNumber string  `json:"blind_phone_number"`
}

// UpdateProfile changes the caller's contact and dependent details. Email,
// device and password are not editable here.
func (h *Handlers) UpdateProfile(c echo.Context) error {
	user, err := h.currentUser(c)
	if user == nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, msgInvalidBody)
	}

	update := repository.ProfileUpdate{
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		PhoneNumber:      strings.TrimSpace(req.PhoneNumber),
		Relationship:     strings.TrimSpace(req.Relationship),
		BlindFullName:    strings.TrimSpace(req.BlindFullName),
		BlindAge:         int(req.BlindAge),
		BlindPhoneNumber: strings.TrimSpace(req.BlindPhoneNumber),
	}
	if update.FirstName == "" || update.LastName == "" || update.BlindFullName == "" || update.BlindAge <= 0 {
		return message(c, http.StatusBadRequest, "Please fill in all required fields")
	}

	ctx := c.Request().Context()
	if err := h.repo.UpdateProfile(ctx, user.ID, update); err != nil {
		slog.ErrorContext(ctx, "profile_update_failed", "user_id", user.ID, "error", err)
		return message(c, http.StatusServiceUnavailable, msgUnavailable)
	}
	if err := h.repo.AddHistory(ctx, user.ID, models.ActionProfileUpdate); err != nil {
		slog.WarnContext(ctx, "history_write_failed", "user_id", user.ID, "error", err)
	}

	updated, err := h.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "user_lookup_failed", "user_id", user.ID, "error", err)
		return message(c, http.StatusServiceUnavailable, msgUnavailable)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Profile updated", "user": updated})
}

// History returns the caller's activity log, newest first.
func (h *Handlers) History(c echo.Context) error {
	user, err := h.currentUser(c)
	if user == nil {
		return err
	}

	records, err := h.repo.ListHistory(c.Request().Context(), user.ID, 50)
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "history_lookup_failed", "user_id", user.ID, "error", err)
		return message(c, http.StatusServiceUnavailable, msgUnavailable)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "History data", "records": records})
}

// Location returns the device's last known positions.
func (h *Handlers) Location(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":   "Location data",
		"locations": []locationPoint{mockLocation},
	})
}

// Sensor returns the device's latest sensor readings.
func (h *Handlers) Sensor(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Sensor data",
		"sensors": []sensorReading{mockSensor},
	})
}

// Battery returns the device's battery status.
func (h *Handlers) Battery(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":      "Battery data",
		"batteryLevel": mockBattery.Level,
		"batteryTime":  mockBattery.Time,
	})
}
