// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/gabaylakad/backend/internal/models"
)

// AddHistory records an action for a user.
func (r *Repository) AddHistory(ctx context.Context, userID int64, action string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO history (user_id, action) VALUES (?, ?)`, userID, action)
	return err
}

// ListHistory returns the newest entries for a user, at most limit of them.
func (r *Repository) ListHistory(ctx context.Context, userID int64, limit int) ([]models.HistoryEntry, error) {
	entries := []models.HistoryEntry{}
	err := r.db.SelectContext(ctx, &entries,
		`SELECT id, user_id, action, created_at FROM history WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
