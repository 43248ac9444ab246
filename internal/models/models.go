// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// History actions recorded by the auth flows.
const (
	ActionLogin         = "Login"
	ActionVerified      = "Email verified"
	ActionPasswordReset = "Password reset"
	ActionProfileUpdate = "Profile updated"
)

// HistoryEntry is one line of the caregiver's activity log.
type HistoryEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Action    string    `db:"action" json:"action"`
	CreatedAt time.Time `db:"created_at" json:"date"`
}
