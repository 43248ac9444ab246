// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/gabaylakad/backend/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, name, phone_number,
	impairment_level, device_id, relationship, blind_full_name, blind_age, blind_phone_number,
	is_verified, verification_code, refresh_token_hash, reset_token_hash, reset_token_expires,
	created_at, updated_at`

// ProfileUpdate holds the profile fields a caregiver may edit.
type ProfileUpdate struct {
	FirstName        string
	LastName         string
	PhoneNumber      string
	Relationship     string
	BlindFullName    string
	BlindAge         int
	BlindPhoneNumber string
}

// CreateUser inserts a new user and fills in its ID and timestamps.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, name, phone_number,
			impairment_level, device_id, relationship, blind_full_name, blind_age, blind_phone_number,
			is_verified, verification_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Name, user.PhoneNumber,
		user.ImpairmentLevel, user.DeviceID, user.Relationship, user.BlindFullName, user.BlindAge,
		user.BlindPhoneNumber, user.IsVerified, user.VerificationCode)
	if err != nil {
		return wrapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	created, err := r.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	*user = *created
	return nil
}

func (r *Repository) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE `+where+` LIMIT 1`, arg)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "email = ?", email)
}

// GetUserByDeviceID retrieves the user bound to a device.
func (r *Repository) GetUserByDeviceID(ctx context.Context, deviceID string) (*models.User, error) {
	return r.getUser(ctx, "device_id = ?", deviceID)
}

// GetUserByRefreshTokenHash retrieves the user holding the given refresh token hash.
func (r *Repository) GetUserByRefreshTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return r.getUser(ctx, "refresh_token_hash = ?", hash)
}

// GetUserByResetTokenHash retrieves the user holding the given reset token hash.
func (r *Repository) GetUserByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return r.getUser(ctx, "reset_token_hash = ?", hash)
}

// MarkUserVerified flips the verified flag and clears the pending code.
func (r *Repository) MarkUserVerified(ctx context.Context, id int64) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET is_verified = 1, verification_code = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id))
}

// SetVerificationCode replaces the pending verification code of an unverified user.
func (r *Repository) SetVerificationCode(ctx context.Context, id int64, code string) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET verification_code = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_verified = 0`, code, id))
}

// SetRefreshTokenHash stores the latest refresh token hash, superseding any previous one.
func (r *Repository) SetRefreshTokenHash(ctx context.Context, id int64, hash string) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, hash, id))
}

// ClearRefreshTokenHash removes the refresh token hash if it is still the given one.
func (r *Repository) ClearRefreshTokenHash(ctx context.Context, id int64, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND refresh_token_hash = ?`, id, hash)
	return err
}

// SetResetToken stores a reset token hash and its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id int64, hash string, expiresAt time.Time) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET reset_token_hash = ?, reset_token_expires = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hash, expiresAt.UTC(), id))
}

// ResetPassword sets a new password hash and clears the reset token and
// refresh session fields.
func (r *Repository) ResetPassword(ctx context.Context, id int64, passwordHash string) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, reset_token_hash = NULL, reset_token_expires = NULL,
			refresh_token_hash = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, passwordHash, id))
}

// UpdateProfile updates the editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, p ProfileUpdate) error {
	return expectRow(r.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, name = ?, phone_number = ?, relationship = ?,
			blind_full_name = ?, blind_age = ?, blind_phone_number = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.FirstName, p.LastName, models.FullName(p.FirstName, p.LastName), p.PhoneNumber, p.Relationship,
		p.BlindFullName, p.BlindAge, p.BlindPhoneNumber, id))
}
