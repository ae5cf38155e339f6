package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/murmur/internal/db"
	"github.com/hpungsan/murmur/internal/errors"
	"github.com/hpungsan/murmur/internal/feedback"
)

// SetStatusInput contains parameters for the SetStatus operation.
type SetStatusInput struct {
	ID     int64
	Status string // "new" or "resolved"
}

// SetStatusOutput contains the result of the SetStatus operation.
type SetStatusOutput struct {
	ID      int64           `json:"id"`
	Status  feedback.Status `json:"status"`
	Message string          `json:"message"`
}

// SetStatus changes the triage status of a record.
// The status must match exactly and is validated before storage is touched.
func SetStatus(ctx context.Context, database *sql.DB, input SetStatusInput) (*SetStatusOutput, error) {
	status := feedback.Status(input.Status)
	if !status.Valid() {
		return nil, errors.NewInvalidRequest("Invalid status. Must be 'new' or 'resolved'")
	}

	if err := db.UpdateFeedbackStatus(ctx, database, input.ID, status); err != nil {
		return nil, err
	}

	return &SetStatusOutput{
		ID:      input.ID,
		Status:  status,
		Message: "Feedback status updated successfully",
	}, nil
}
