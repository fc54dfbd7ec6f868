// Package mcpserver exposes trace analysis as MCP tools.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kolkov/shapecheck/shapecheck"
)

// Handlers serves the analysis tools with a fixed base configuration.
type Handlers struct {
	cfg    shapecheck.Config
	logger *slog.Logger
}

// NewHandlers creates tool handlers. A nil logger discards diagnostics.
func NewHandlers(cfg shapecheck.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{cfg: cfg, logger: logger}
}

// analyze is the shared helper of all tools: it replays the trace named by
// the "trace" argument and builds its report.
func (h *Handlers) analyze(ctx context.Context, request mcp.CallToolRequest) (*shapecheck.Report, error) {
	path, err := request.RequireString("trace")
	if err != nil {
		return nil, err
	}
	limit := request.GetInt("limit", h.cfg.Limit)
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0, got %d", limit)
	}
	cfg := h.cfg
	cfg.Offline = false
	a, err := shapecheck.AnalyzeFile(ctx, path, cfg, h.logger.With("trace", path))
	if err != nil {
		return nil, err
	}
	return a.Report(limit), nil
}

// AnalyzeTrace handles requests for the 'analyze_trace' tool.
func (h *Handlers) AnalyzeTrace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := h.analyze(ctx, request)
	if err != nil {
		return mcp.NewToolResultError("Failed to analyze trace: " + err.Error()), nil
	}
	return mcp.NewToolResultText(rep.String()), nil
}

// TypeWarnings handles requests for the 'type_warnings' tool.
func (h *Handlers) TypeWarnings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := h.analyze(ctx, request)
	if err != nil {
		return mcp.NewToolResultError("Failed to analyze trace: " + err.Error()), nil
	}
	summary := fmt.Sprintf("%d type warnings (%d shown)", rep.Types.Total, len(rep.Types.Warnings))
	return mcp.NewToolResultStructured(rep.Types, summary), nil
}

// PolymorphicSites handles requests for the 'polymorphic_sites' tool.
func (h *Handlers) PolymorphicSites(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := h.analyze(ctx, request)
	if err != nil {
		return mcp.NewToolResultError("Failed to analyze trace: " + err.Error()), nil
	}
	summary := fmt.Sprintf("%d polymorphic sites (%d shown)", rep.Polymorphic.Total, len(rep.Polymorphic.Sites))
	return mcp.NewToolResultStructured(rep.Polymorphic, summary), nil
}

// RegisterTools defines all tools on the server and registers their handlers.
func RegisterTools(s *server.MCPServer, h *Handlers) {
	traceArg := mcp.WithString("trace", mcp.Required(),
		mcp.Description("Absolute path to a shapecheck trace file (JSON lines, e.g. '/tmp/run.jsonl')"))
	limitArg := mcp.WithNumber("limit",
		mcp.Description("Maximum entries per report section. Defaults to the server configuration (30)."))

	// Tool 1: full text report.
	s.AddTool(mcp.NewTool("analyze_trace",
		mcp.WithDescription("Analyze an execution trace and return the full text report: fields observed with inconsistent types, polymorphic statements ranked by how often their secondary hidden classes occur, reads of uninitialized array elements, array element-kind switches, incontiguous array writes and fields added outside constructors."),
		traceArg, limitArg,
	), h.AnalyzeTrace)

	// Tool 2: structured type warnings.
	s.AddTool(mcp.NewTool("type_warnings",
		mcp.WithDescription("Return the type consistency warnings of a trace as structured data. Each warning names the owning type, the field or call slot (this, return, argN) and every observed type with its source locations."),
		traceArg, limitArg,
	), h.TypeWarnings)

	// Tool 3: structured polymorphic sites.
	s.AddTool(mcp.NewTool("polymorphic_sites",
		mcp.WithDescription("Return the polymorphic property-access and construction sites of a trace as structured data, highest ranked first, with the layouts seen at each site and where the objects were created."),
		traceArg, limitArg,
	), h.PolymorphicSites)
}
