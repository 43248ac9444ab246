// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package revocation holds the short-lived state that sits next to the user
// records: refresh sessions and blacklisted access tokens. Every entry carries
// a TTL so the cache never outgrows the tokens it describes.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/gabaylakad/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix   = "session:"
	blacklistPrefix = "blacklist:"
)

var (
	// ErrTTLRequired is returned when Put is called without a positive TTL.
	ErrTTLRequired = errors.New("revocation: ttl must be positive")
	// ErrUnavailable wraps every failure of the backing store.
	ErrUnavailable = errors.New("revocation: cache unavailable")
)

// Cache is a key/value store with mandatory expiry, backed by Redis.
type Cache struct {
	redis *redis.Client
}

// New wraps an existing Redis client.
func New(client *redis.Client) *Cache {
	return &Cache{redis: client}
}

// Connect creates a Redis client from the configuration and checks that the
// server answers.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return client, nil
}

// SessionKey returns the key under which a refresh session is stored.
func SessionKey(hash string) string {
	return sessionPrefix + hash
}

// BlacklistKey returns the key marking an access token as revoked.
func BlacklistKey(token string) string {
	return blacklistPrefix + token
}

// Put stores value under key for ttl.
func (c *Cache) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrTTLRequired
	}
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the value under key. A missing key is reported through the
// boolean, not as an error.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	return found(c.redis.Get(ctx, key).Result())
}

// Take returns the value under key and deletes it in one step. Of several
// concurrent callers at most one sees the value.
func (c *Cache) Take(ctx context.Context, key string) (string, bool, error) {
	return found(c.redis.GetDel(ctx, key).Result())
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping checks that the cache answers.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func found(value string, err error) (string, bool, error) {
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, true, nil
}
