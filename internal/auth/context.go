// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"codeberg.org/gabaylakad/backend/internal/ctxkeys"
)

// Identity is the caller established by the authentication gate.
type Identity struct {
	SubjectID int64
	Email     string
}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxkeys.Identity{}, id)
}

// GetIdentity returns the authenticated identity from the context, or nil if not authenticated.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(ctxkeys.Identity{}).(*Identity); ok {
		return id
	}
	return nil
}

// IsAuthenticated returns true if the context has an authenticated identity.
func IsAuthenticated(ctx context.Context) bool {
	return GetIdentity(ctx) != nil
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkeys.RequestID{}, id)
}

// RequestID returns the request ID from the context, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkeys.RequestID{}).(string)
	return id
}
