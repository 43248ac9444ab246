// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"
)

// User is the caregiver account bound to exactly one device.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID               int64      `db:"id" json:"user_id"`
	Email            string     `db:"email" json:"email"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	Name             string     `db:"name" json:"name"`
	PhoneNumber      string     `db:"phone_number" json:"phone_number"`
	ImpairmentLevel  string     `db:"impairment_level" json:"impairment_level"`
	DeviceID         string     `db:"device_id" json:"device_serial_number"`
	Relationship     string     `db:"relationship" json:"relationship"`
	BlindFullName    string     `db:"blind_full_name" json:"blind_full_name"`
	BlindAge         int        `db:"blind_age" json:"blind_age"`
	BlindPhoneNumber string     `db:"blind_phone_number" json:"blind_phone_number"`
	IsVerified       bool       `db:"is_verified" json:"is_verified"`
	VerificationCode *string    `db:"verification_code" json:"-"`
	RefreshTokenHash *string    `db:"refresh_token_hash" json:"-"`
	ResetTokenHash   *string    `db:"reset_token_hash" json:"-"`
	ResetTokenExpiry *time.Time `db:"reset_token_expires" json:"-"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name the way the registration form does.
func FullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// PendingCode returns the outstanding verification code, or "" if none.
func (u *User) PendingCode() string {
	if u.VerificationCode == nil {
		return ""
	}
	return *u.VerificationCode
}

// HoldsRefreshHash reports whether hash is the latest refresh token issued
// to the user.
func (u *User) HoldsRefreshHash(hash string) bool {
	return u.RefreshTokenHash != nil && hash != "" && *u.RefreshTokenHash == hash
}

// ResetTokenValid reports whether the stored reset token is still usable at now.
func (u *User) ResetTokenValid(now time.Time) bool {
	return u.ResetTokenHash != nil && u.ResetTokenExpiry != nil && now.Before(*u.ResetTokenExpiry)
}
