// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"app.localhost", true},
		{"example.com", false},
		{"192.168.1.1", false},
		{"localhost.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocalhost(tt.host))
		})
	}
}

func TestShouldUseTLS(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		host     string
		expected bool
	}{
		{"off mode", "off", "example.com", false},
		{"acme mode", "acme", "localhost", true},
		{"manual mode", "manual", "localhost", true},
		{"auto mode with localhost", "auto", "localhost", false},
		{"auto mode with remote host", "auto", "example.com", true},
		{"empty mode with localhost", "", "localhost", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldUseTLS(tt.mode, tt.host))
		})
	}
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name: "localhost HTTP default port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 80},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost",
		},
		{
			name: "localhost HTTP custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 5000},
				TLS:    TLSConfig{Mode: "auto"},
			},
			expected: "http://localhost:5000",
		},
		{
			name: "remote host with auto TLS",
			cfg: &Config{
				Server: ServerConfig{Host: "api.example.com", Port: 443},
				TLS:    TLSConfig{Mode: "auto"},
			},
			expected: "https://api.example.com",
		},
		{
			name: "ACME mode forces port 443",
			cfg: &Config{
				Server: ServerConfig{Host: "api.example.com", Port: 5000},
				TLS:    TLSConfig{Mode: "acme"},
			},
			expected: "https://api.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, splitList(" http://a.test, ,http://b.test "))
	assert.Nil(t, splitList(""))
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "api.example.com"},
		Auth: AuthConfig{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  10 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			ResetTokenTTL:   15 * time.Minute,
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing secret on remote host", func(t *testing.T) {
		cfg := validConfig()
		cfg.Auth.JWTSecret = ""

		assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
	})

	t.Run("missing secret on localhost is generated", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Host = "localhost"
		cfg.Auth.JWTSecret = ""

		require.NoError(t, cfg.Validate())
		assert.Len(t, cfg.Auth.JWTSecret, 64)
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		cfg := validConfig()
		cfg.Auth.ResetTokenTTL = 0

		assert.ErrorIs(t, cfg.Validate(), ErrInvalidTTL)
	})
}

func TestFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range Flags() {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{"host", "port", "database-dsn", "redis-addr", "jwt-secret", "access-token-ttl", "smtp-host", "strict-logout"} {
		assert.True(t, flagNames[name], "should have %s flag", name)
	}
}

func TestNewFromCLI(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "localhost", cfg.Server.Host)
			assert.Equal(t, 5000, cfg.Server.Port)
			assert.Equal(t, "http://localhost:5000", cfg.Server.BaseURL)
			assert.Equal(t, cfg.Server.BaseURL, cfg.Auth.FrontendURL)
			assert.Equal(t, 10*time.Minute, cfg.Auth.AccessTokenTTL)
			assert.Equal(t, 30*24*time.Hour, cfg.Auth.RefreshTokenTTL)
			assert.Equal(t, 15*time.Minute, cfg.Auth.ResetTokenTTL)
			assert.Equal(t, 10, cfg.Auth.BcryptCost)
			assert.False(t, cfg.Auth.StrictLogout)
			assert.False(t, cfg.SMTP.Enabled())

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 9000, cfg.Server.Port)
			assert.Equal(t, "https://api.example.com", cfg.Server.BaseURL)
			assert.Equal(t, "https://app.example.com", cfg.Auth.FrontendURL)
			assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
			assert.Equal(t, "redis:6379", cfg.Redis.Addr)
			assert.True(t, cfg.Auth.StrictLogout)

			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://api.example.com",
		"--frontend-url", "https://app.example.com",
		"--access-token-ttl", "5m",
		"--redis-addr", "redis:6379",
		"--strict-logout",
	}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}
