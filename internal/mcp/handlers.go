package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/errors"
	"github.com/hpungsan/murmur/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
	gen ops.Generator
}

// NewHandlers creates a new Handlers instance.
// A nil gen summarizes with the local keyword engine only.
func NewHandlers(db *sql.DB, cfg *config.Config, gen ops.Generator) *Handlers {
	return &Handlers{db: db, cfg: cfg, gen: gen}
}

// SubmitRequest represents the arguments for feedback_submit.
type SubmitRequest struct {
	Text string `json:"text"`
}

// GetRequest represents the arguments for feedback_get.
type GetRequest struct {
	ID int64 `json:"id"`
}

// SetStatusRequest represents the arguments for feedback_set_status.
type SetStatusRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// HandleSubmit handles the feedback_submit tool call.
func (h *Handlers) HandleSubmit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SubmitRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Submit(ctx, h.db, h.cfg, ops.SubmitInput{Text: input.Text})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the feedback_list tool call.
func (h *Handlers) HandleList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.List(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleGet handles the feedback_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest(ops.InvalidIDMessage)), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSetStatus handles the feedback_set_status tool call.
func (h *Handlers) HandleSetStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetStatusRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest(ops.InvalidIDMessage)), nil
	}

	result, err := ops.SetStatus(ctx, h.db, ops.SetStatusInput{
		ID:     input.ID,
		Status: input.Status,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleInsights handles the feedback_insights tool call.
func (h *Handlers) HandleInsights(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Insights(ctx, h.db, h.gen)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// decode unmarshals MCP request arguments into a typed struct.
// Mistyped arguments (a string id, a fractional id) become INVALID_REQUEST.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("marshal args: %v", err))
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("invalid arguments: %v", err))
	}
	return result, nil
}

// errorResult creates an MCP error result from any error.
// Internal error messages are replaced so SQL and file paths never leak.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if mErr, ok := errors.As(err); ok && mErr.Code != errors.ErrInternal {
		errorObj := map[string]any{
			"code":    mErr.Code,
			"message": mErr.Message,
			"status":  mErr.Status,
		}
		if mErr.Details != nil {
			errorObj["details"] = mErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
