// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"codeberg.org/gabaylakad/backend/internal/auth"
	"github.com/labstack/echo/v4"
)

// RequestIDToContext copies the X-Request-ID response header, set by Echo's
// RequestID middleware, into the request context for logging.
func RequestIDToContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				c.SetRequest(c.Request().WithContext(auth.WithRequestID(c.Request().Context(), id)))
			}
			return next(c)
		}
	}
}
