package ops

import (
	"context"
	"strconv"
	"strings"

	"github.com/hpungsan/murmur/internal/errors"
	"github.com/hpungsan/murmur/internal/insight"
)

// InvalidIDMessage is returned for ids that are not positive integers.
const InvalidIDMessage = "Invalid feedback ID"

// Generator produces an insight report for a corpus of texts.
// *insight.Engine implements it.
type Generator interface {
	GenerateReport(ctx context.Context, texts []string) insight.Report
}

// ParseID parses a feedback id from a path segment or CLI argument.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(InvalidIDMessage)
	}
	return id, nil
}
