package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/murmur/internal/errors"
)

// SessionRow is the persisted form of an admin session.
type SessionRow struct {
	ID        string
	IsAdmin   bool
	CreatedAt int64
	ExpiresAt int64
}

// UpsertSession stores a session, replacing any row with the same id.
func UpsertSession(ctx context.Context, db *sql.DB, s SessionRow) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (id, is_admin, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_admin = excluded.is_admin,
			expires_at = excluded.expires_at
	`, s.ID, boolToInt(s.IsAdmin), s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetSession returns the session with the given id, or (nil, nil) if absent.
// Expiry is the caller's concern.
func GetSession(ctx context.Context, db *sql.DB, id string) (*SessionRow, error) {
	var (
		s       SessionRow
		isAdmin int
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, is_admin, created_at, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &isAdmin, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s.IsAdmin = isAdmin != 0
	return &s, nil
}

// DeleteSession removes a session. Deleting an unknown id is not an error.
func DeleteSession(ctx context.Context, db *sql.DB, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func DeleteExpiredSessions(ctx context.Context, db *sql.DB, now int64) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
