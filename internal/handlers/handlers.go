// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/gabaylakad/backend/internal/repository"
	"github.com/labstack/echo/v4"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains the caregiver API handlers.
type Handlers struct {
	repo  *repository.Repository
	cache Pinger
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, cache Pinger) *Handlers {
	return &Handlers{repo: repo, cache: cache}
}

// Health reports whether the database and the cache answer.
func (h *Handlers) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := []struct {
		name string
		dep  Pinger
	}{
		{"database", h.repo},
		{"cache", h.cache},
	}
	for _, check := range checks {
		if err := check.dep.Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "health_check_failed", "dependency", check.name, "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "unavailable",
				"message": check.name + " unreachable",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "API is running",
	})
}

type logRequest struct {
	Message string `json:"message"`
}

// Log writes a message sent by the frontend to the server log.
func (h *Handlers) Log(c echo.Context) error {
	var req logRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, msgInvalidBody)
	}
	if req.Message == "" {
		req.Message = "[Frontend] No message"
	}
	slog.InfoContext(c.Request().Context(), "frontend_log", "message", req.Message)
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
