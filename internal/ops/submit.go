package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/db"
	"github.com/hpungsan/murmur/internal/errors"
	"github.com/hpungsan/murmur/internal/feedback"
)

// SubmitMessage is the confirmation returned for a stored submission.
const SubmitMessage = "Feedback submitted successfully"

// SubmitInput contains parameters for the Submit operation.
type SubmitInput struct {
	Text string // required, trimmed before storing
}

// SubmitOutput contains the result of the Submit operation.
type SubmitOutput struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// Submit validates and stores a new feedback record with status "new".
func Submit(ctx context.Context, database *sql.DB, cfg *config.Config, input SubmitInput) (*SubmitOutput, error) {
	text := feedback.CleanText(input.Text)

	maxChars := feedback.DefaultMaxChars
	if cfg != nil && cfg.MaxFeedbackChars > 0 {
		maxChars = cfg.MaxFeedbackChars
	}

	check := feedback.Check(feedback.CheckInput{Text: text, MaxChars: maxChars})
	if check.Empty {
		return nil, errors.NewInvalidRequest("Feedback text is required")
	}
	if check.TooLarge {
		return nil, errors.NewTooLarge(check.MaxChars, check.ActualChars)
	}

	id, err := db.InsertFeedback(ctx, database, text, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	return &SubmitOutput{ID: id, Message: SubmitMessage}, nil
}
