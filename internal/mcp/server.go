package mcp

import (
	"database/sql"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"feedback_submit": {
		def:     submitToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSubmit },
	},
	"feedback_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"feedback_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"feedback_set_status": {
		def:     setStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetStatus },
	},
	"feedback_insights": {
		def:     insightsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleInsights },
	},
}

// AllToolNames returns every registered tool name, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the feedback tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(db *sql.DB, cfg *config.Config, gen ops.Generator, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"murmur",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, gen)

	disabled := make(map[string]bool)
	if cfg != nil {
		for _, name := range cfg.DisabledTools {
			disabled[name] = true
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, gen ops.Generator, version string) error {
	s := NewServer(db, cfg, gen, version)
	return server.ServeStdio(s)
}
