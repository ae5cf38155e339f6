package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/murmur/internal/db"
	"github.com/hpungsan/murmur/internal/feedback"
)

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []feedback.Record `json:"items"`
	Count int               `json:"count"`
	Sort  string            `json:"sort"`
}

// List returns every feedback record, newest first.
func List(ctx context.Context, database *sql.DB) (*ListOutput, error) {
	records, err := db.ListFeedback(ctx, database)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if records == nil {
		records = []feedback.Record{}
	}

	return &ListOutput{
		Items: records,
		Count: len(records),
		Sort:  "created_at_desc",
	}, nil
}
