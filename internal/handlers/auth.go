// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	authsvc "codeberg.org/gabaylakad/backend/internal/services/auth"
	"github.com/labstack/echo/v4"
)

const msgResetRequested = "If your email exists, you will receive a reset link."

// AuthHandlers contains handlers for the account flows.
type AuthHandlers struct {
	svc *authsvc.Service
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(svc *authsvc.Service) *AuthHandlers {
	return &AuthHandlers{svc: svc}
}

// flexInt accepts both 42 and "42"; the registration form sends either.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*n = flexInt(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = flexInt(v)
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Message      string `json:"message,omitempty"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates a caregiver and returns an access and a refresh token.
func (h *AuthHandlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, msgInvalidBody)
	}

	pair, _, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "Please fill in all fields")
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Message:      "Login successful!",
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken rotates a refresh token.
func (h *AuthHandlers) RefreshToken(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, msgInvalidBody)
	}

	pair, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(c, err, "Missing refresh token")
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout revokes the bearer token and, if supplied, the refresh token.
func (h *AuthHandlers) Logout(c echo.Context) error {
	// The body is optional; a broken one must not keep the bearer token alive.
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		slog.Debug("logout body ignored", "error", err)
		req = refreshRequest{}
	}

	access, _ := authsvc.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err := h.svc.Logout(c.Request().Context(), access, req.RefreshToken); err != nil {
		return respondError(c, err, "No token provided")
	}

	return message(c, http.StatusOK, "Logout successful!")
}

type registerRequest struct {
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Email            string  `json:"email"`
	PhoneNumber      string  `json:"phone_number"`
	ImpairmentLevel  string  `json:"impairment_level"`
	DeviceID         string  `json:"device_id"`
	Password         string  `json:"password"`
	Relationship     string  `json:"relationship"`
	BlindFullName    string  `json:"blind_full_name"`
	BlindAge         flexInt `json:"blind_age"`
	BlindPhoneNumber string  `json:"blind_phone_number"`
}

// Register creates an unverified account and mails the verification code.
func (h *AuthHandlers) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, msgInvalidBody)
	}

	_, err := h.svc.Register(c.Request().Context(), authsvc.RegisterParams{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		ImpairmentLevel:  req.ImpairmentLevel,
		DeviceID:         req.DeviceID,
		Password:         req.Password,
		Relationship:     req.Relationship,
		BlindFullName:    req.BlindFullName,
		BlindAge:         int(req.BlindAge),
		BlindPhoneNumber: req.BlindPhoneNumber,
	})
	if err != nil {
		return respondError(c, err, "Please fill in all required fields")
	}

	return message(c, http.StatusCreated, "Registration initiated. Please check your email for the verification code.")
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify activates an account with the emailed code.
func (h *AuthHandlers) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, msgInvalidBody)
	}

	if err := h.svc.Verify(c.Request().Context(), req.Email, req.Code); err != nil {
		return respondError(c, err, "Missing email or code")
	}

	return message(c, http.StatusOK, "Email verified successfully!")
}

type emailRequest struct {
	Email string `json:"email"`
}

// ResendVerification sends a new code to an unverified account.
func (h *AuthHandlers) ResendVerification(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, msgInvalidBody)
	}

	if err := h.svc.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err, "Missing email")
	}

	return message(c, http.StatusOK, "If your account is awaiting verification, a new code has been sent.")
}

// ForgotPassword starts a password reset. The answer never reveals whether
// the account exists.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, msgResetRequested)
	}

	if err := h.svc.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err, msgResetRequested)
	}

	return message(c, http.StatusOK, msgResetRequested)
}

type resetRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword sets a new password with a reset token.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, msgInvalidBody)
	}

	if err := h.svc.ResetPassword(c.Request().Context(), req.ResetToken, req.NewPassword); err != nil {
		return respondError(c, err, "Missing token or new password")
	}

	return message(c, http.StatusOK, "Password reset successful!")
}
