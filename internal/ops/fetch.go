package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/murmur/internal/db"
	"github.com/hpungsan/murmur/internal/feedback"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID int64
}

// Fetch retrieves a feedback record by id.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*feedback.Record, error) {
	return db.GetFeedback(ctx, database, input.ID)
}
