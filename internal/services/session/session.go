// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session manages the long-lived refresh tokens. A refresh token is
// only ever stored as its SHA-256 hash, in the user record and in the cache,
// and every use replaces it with a new one.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"codeberg.org/gabaylakad/backend/internal/models"
	"codeberg.org/gabaylakad/backend/internal/repository"
	"codeberg.org/gabaylakad/backend/internal/revocation"
)

// DefaultTTL is the lifetime of a refresh session.
const DefaultTTL = 30 * 24 * time.Hour

// tokenBytes is the entropy of a refresh token.
const tokenBytes = 32

// ErrInvalidOrExpired is returned for unknown, used, superseded or expired
// refresh tokens.
var ErrInvalidOrExpired = errors.New("refresh token invalid or expired")

// Store is the part of the credential store the manager writes through to.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByRefreshTokenHash(ctx context.Context, hash string) (*models.User, error)
	SetRefreshTokenHash(ctx context.Context, id int64, hash string) error
	ClearRefreshTokenHash(ctx context.Context, id int64, hash string) error
}

// Cache holds the session entries with their expiry.
type Cache interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// Manager issues, rotates and revokes refresh tokens.
type Manager struct {
	store Store
	cache Cache
	ttl   time.Duration
}

// NewManager creates a Manager. A non-positive ttl falls back to DefaultTTL.
func NewManager(store Store, cache Cache, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, cache: cache, ttl: ttl}
}

// NewToken generates a random refresh token and its hash.
func NewToken() (plaintext, hash string, err error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plaintext = hex.EncodeToString(b)
	return plaintext, HashToken(plaintext), nil
}

// HashToken returns the SHA-256 hex digest of a refresh token.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Start opens a new refresh session for the user and drops the previous one.
func (m *Manager) Start(ctx context.Context, user *models.User) (string, error) {
	plaintext, err := m.issue(ctx, user.ID)
	if err != nil {
		return "", err
	}

	if user.RefreshTokenHash != nil {
		if err := m.cache.Delete(ctx, revocation.SessionKey(*user.RefreshTokenHash)); err != nil {
			// The record no longer holds the old hash, so it cannot rotate anyway.
			slog.Warn("session_drop_failed", "user_id", user.ID, "error", err)
		}
	}
	return plaintext, nil
}

// Rotate exchanges a refresh token for a new one. The old token is consumed
// before anything is written, so each token rotates at most once.
func (m *Manager) Rotate(ctx context.Context, old string) (string, int64, error) {
	if old == "" {
		return "", 0, ErrInvalidOrExpired
	}
	hash := HashToken(old)

	value, ok, err := m.cache.Take(ctx, revocation.SessionKey(hash))
	if err != nil {
		return "", 0, fmt.Errorf("take session: %w", err)
	}
	if !ok {
		return "", 0, ErrInvalidOrExpired
	}

	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return "", 0, ErrInvalidOrExpired
	}

	user, err := m.store.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", 0, ErrInvalidOrExpired
	}
	if err != nil {
		return "", 0, fmt.Errorf("load user: %w", err)
	}
	if !user.HoldsRefreshHash(hash) {
		return "", 0, ErrInvalidOrExpired
	}

	plaintext, err := m.issue(ctx, userID)
	if err != nil {
		return "", 0, err
	}
	return plaintext, userID, nil
}

// Revoke ends the session of a refresh token. Unknown tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, plaintext string) error {
	if plaintext == "" {
		return nil
	}
	hash := HashToken(plaintext)

	value, ok, err := m.cache.Take(ctx, revocation.SessionKey(hash))
	if err != nil {
		return fmt.Errorf("take session: %w", err)
	}

	var userID int64
	if ok {
		userID, _ = strconv.ParseInt(value, 10, 64)
	}
	if userID == 0 {
		user, err := m.store.GetUserByRefreshTokenHash(ctx, hash)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		userID = user.ID
	}

	if err := m.store.ClearRefreshTokenHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("clear refresh hash: %w", err)
	}
	return nil
}

// issue writes a fresh token hash to the record first and the cache second.
func (m *Manager) issue(ctx context.Context, userID int64) (string, error) {
	plaintext, hash, err := NewToken()
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	if err := m.store.SetRefreshTokenHash(ctx, userID, hash); err != nil {
		return "", fmt.Errorf("store refresh hash: %w", err)
	}
	if err := m.cache.Put(ctx, revocation.SessionKey(hash), strconv.FormatInt(userID, 10), m.ttl); err != nil {
		return "", fmt.Errorf("cache session: %w", err)
	}
	return plaintext, nil
}
