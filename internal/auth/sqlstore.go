package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/murmur/internal/db"
)

// SQLStore keeps sessions in the sessions table next to the feedback.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a store backed by database.
func NewSQLStore(database *sql.DB) *SQLStore {
	return &SQLStore{db: database}
}

// Save implements SessionStore.
func (s *SQLStore) Save(ctx context.Context, sess Session) error {
	return db.UpsertSession(ctx, s.db, db.SessionRow{
		ID:        sess.ID,
		IsAdmin:   sess.IsAdmin,
		CreatedAt: sess.CreatedAt.Unix(),
		ExpiresAt: sess.ExpiresAt.Unix(),
	})
}

// Get implements SessionStore.
func (s *SQLStore) Get(ctx context.Context, id string) (*Session, error) {
	row, err := db.GetSession(ctx, s.db, id)
	if err != nil || row == nil {
		return nil, err
	}
	return &Session{
		ID:        row.ID,
		IsAdmin:   row.IsAdmin,
		CreatedAt: time.Unix(row.CreatedAt, 0),
		ExpiresAt: time.Unix(row.ExpiresAt, 0),
	}, nil
}

// Delete implements SessionStore.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	return db.DeleteSession(ctx, s.db, id)
}

// PurgeExpired implements SessionStore.
func (s *SQLStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	n, err := db.DeleteExpiredSessions(ctx, s.db, now.Unix())
	return int(n), err
}
