// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	authsvc "codeberg.org/gabaylakad/backend/internal/services/auth"
	"github.com/labstack/echo/v4"
)

const (
	msgInvalidBody = "Invalid request body"
	msgUnavailable = "Service temporarily unavailable"
	msgUserMissing = "User not found"
)

var errorMessages = []struct {
	err     error
	status  int
	message string
}{
	{authsvc.ErrInvalidEmail, http.StatusBadRequest, "Please enter a valid email address"},
	{authsvc.ErrUserNotFound, http.StatusNotFound, "User not found!"},
	{authsvc.ErrNotVerified, http.StatusUnauthorized, "Please verify your email before logging in."},
	{authsvc.ErrBadCredential, http.StatusUnauthorized, "Incorrect password!"},
	{authsvc.ErrInvalidRefreshToken, http.StatusUnauthorized, "Invalid refresh token"},
	{authsvc.ErrAlreadyVerified, http.StatusBadRequest, "User already verified"},
	{authsvc.ErrInvalidCode, http.StatusBadRequest, "Invalid verification code"},
	{authsvc.ErrInvalidResetToken, http.StatusBadRequest, "Invalid or expired token"},
	{authsvc.ErrDeviceRegistered, http.StatusConflict, "The Device ID you entered already exists. Please check your device manual for the correct Device ID or use a different one."},
	{authsvc.ErrEmailRegistered, http.StatusConflict, "An account with this email already exists."},
}

// respondError writes the status and stable message for a flow error.
// missing is the message used for ErrMissingFields, which differs per endpoint.
func respondError(c echo.Context, err error, missing string) error {
	if errors.Is(err, authsvc.ErrMissingFields) {
		return message(c, http.StatusBadRequest, missing)
	}

	var pwErr *authsvc.PasswordValidationError
	if errors.As(err, &pwErr) {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"message": pwErr.Error(),
			"errors":  pwErr.Messages(),
		})
	}

	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return message(c, m.status, m.message)
		}
	}
	return message(c, http.StatusServiceUnavailable, msgUnavailable)
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}
