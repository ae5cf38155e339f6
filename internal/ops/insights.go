package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/murmur/internal/db"
	"github.com/hpungsan/murmur/internal/insight"
)

// InsightsOutput contains the result of the Insights operation.
type InsightsOutput struct {
	insight.Result
	Source   string            `json:"source"`
	Attempts []insight.Attempt `json:"attempts,omitempty"`
}

// Insights summarizes every stored feedback text.
// Only storage errors are returned; provider failures degrade the result.
func Insights(ctx context.Context, database *sql.DB, gen Generator) (*InsightsOutput, error) {
	texts, err := db.ListFeedbackTexts(ctx, database)
	if err != nil {
		return nil, err
	}

	if gen == nil {
		gen = insight.NewEngine(nil)
	}
	report := gen.GenerateReport(ctx, texts)

	return &InsightsOutput{
		Result:   report.Result,
		Source:   report.Source,
		Attempts: report.Attempts,
	}, nil
}
