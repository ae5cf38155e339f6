package mcp

import "github.com/mark3labs/mcp-go/mcp"

var submitToolDef = mcp.NewTool("feedback_submit",
	mcp.WithDescription("Store a new feedback submission. Text is trimmed and must be non-empty."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Free-text feedback"),
	),
)

var listToolDef = mcp.NewTool("feedback_list",
	mcp.WithDescription("List every feedback record, newest first."),
)

var getToolDef = mcp.NewTool("feedback_get",
	mcp.WithDescription("Fetch one feedback record by id."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Feedback id (positive integer)"),
	),
)

var setStatusToolDef = mcp.NewTool("feedback_set_status",
	mcp.WithDescription("Mark a feedback record as new or resolved."),
	mcp.WithNumber("id",
		mcp.Required(),
		mcp.Description("Feedback id (positive integer)"),
	),
	mcp.WithString("status",
		mcp.Required(),
		mcp.Enum("new", "resolved"),
		mcp.Description("Triage status"),
	),
)

var insightsToolDef = mcp.NewTool("feedback_insights",
	mcp.WithDescription("Summarize all feedback into a short summary and up to five topic clusters. "+
		"Falls back to local keyword clustering when no language model is reachable."),
)
