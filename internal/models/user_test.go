// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"testing"
	"time"

	"codeberg.org/gabaylakad/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestFullName(t *testing.T) {
	assert.Equal(t, "Juan Dela Cruz", models.FullName("Juan", "Dela Cruz"))
	assert.Equal(t, "Juan", models.FullName("Juan", ""))
}

func TestUser_PendingCode(t *testing.T) {
	assert.Empty(t, (&models.User{}).PendingCode())
	assert.Equal(t, "123456", (&models.User{VerificationCode: ptr("123456")}).PendingCode())
}

func TestUser_HoldsRefreshHash(t *testing.T) {
	user := &models.User{RefreshTokenHash: ptr("abc")}

	assert.True(t, user.HoldsRefreshHash("abc"))
	assert.False(t, user.HoldsRefreshHash("def"))
	assert.False(t, user.HoldsRefreshHash(""))
	assert.False(t, (&models.User{}).HoldsRefreshHash("abc"))
}

func TestUser_ResetTokenValid(t *testing.T) {
	now := time.Date(2025, 9, 27, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		user     *models.User
		expected bool
	}{
		{"no token", &models.User{}, false},
		{"missing expiry", &models.User{ResetTokenHash: ptr("h")}, false},
		{"future expiry", &models.User{ResetTokenHash: ptr("h"), ResetTokenExpiry: ptr(now.Add(time.Minute))}, true},
		{"past expiry", &models.User{ResetTokenHash: ptr("h"), ResetTokenExpiry: ptr(now.Add(-time.Second))}, false},
		{"expiry equals now", &models.User{ResetTokenHash: ptr("h"), ResetTokenExpiry: ptr(now)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.ResetTokenValid(now))
		})
	}
}
