// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware holds the Echo middleware of the API.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"codeberg.org/gabaylakad/backend/internal/auth"
	authsvc "codeberg.org/gabaylakad/backend/internal/services/auth"
	"github.com/labstack/echo/v4"
)

// HeaderRefreshedToken carries the renewed access token on every
// authenticated response.
const HeaderRefreshedToken = "X-Refreshed-Token"

// Authenticator checks an Authorization header value.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*authsvc.Identity, error)
}

// RequireAuth rejects requests without a valid, unrevoked bearer token. On
// success the renewed token is set as a response header and the identity is
// stored in the request context.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, err := a.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				status, message := gateFailure(err)
				return c.JSON(status, map[string]string{"message": message})
			}

			c.Response().Header().Set(HeaderRefreshedToken, id.RenewedToken)
			ctx := auth.WithIdentity(req.Context(), &auth.Identity{
				SubjectID: id.SubjectID,
				Email:     id.Email,
			})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func gateFailure(err error) (int, string) {
	switch {
	case errors.Is(err, authsvc.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized: No token provided"
	case errors.Is(err, authsvc.ErrBlacklisted):
		return http.StatusForbidden, "Unauthorized: Token has been revoked"
	case errors.Is(err, authsvc.ErrInvalidToken):
		return http.StatusForbidden, "Unauthorized: Invalid or expired token"
	default:
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	}
}
