package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/murmur/internal/errors"
	"github.com/hpungsan/murmur/internal/feedback"
)

// listOrder is shared by every feedback listing so texts and records agree.
const listOrder = " ORDER BY created_at DESC, id DESC"

// InsertFeedback stores a new record with status "new" and returns its id.
// The caller is responsible for trimming and validating text.
func InsertFeedback(ctx context.Context, db *sql.DB, text string, createdAt int64) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO feedback (text, created_at, status) VALUES (?, ?, ?)`,
		text, createdAt, string(feedback.StatusNew),
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// GetFeedback retrieves a record by id.
func GetFeedback(ctx context.Context, db *sql.DB, id int64) (*feedback.Record, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, text, created_at, status FROM feedback WHERE id = ?`, id)

	r, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// ListFeedback returns every record, newest first.
func ListFeedback(ctx context.Context, db *sql.DB) ([]feedback.Record, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, text, created_at, status FROM feedback`+listOrder)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	records := make([]feedback.Record, 0)
	for rows.Next() {
		r, err := scanFeedback(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return records, nil
}

// ListFeedbackTexts returns every text in ListFeedback order.
func ListFeedbackTexts(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT text FROM feedback`+listOrder)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	texts := make([]string, 0)
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, errors.NewInternal(err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return texts, nil
}

// CountFeedback returns the number of stored records.
func CountFeedback(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// UpdateFeedbackStatus sets the status of an existing record.
// Does NOT change: id, text, created_at
func UpdateFeedbackStatus(ctx context.Context, db *sql.DB, id int64, status feedback.Status) error {
	result, err := db.ExecContext(ctx,
		`UPDATE feedback SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanFeedback scans a single row into a Record.
func scanFeedback(row rowScanner) (*feedback.Record, error) {
	var (
		r      feedback.Record
		status string
	)
	if err := row.Scan(&r.ID, &r.Text, &r.CreatedAt, &status); err != nil {
		return nil, err
	}
	r.Status = feedback.Status(status)
	return &r, nil
}
