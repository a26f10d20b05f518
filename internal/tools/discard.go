package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// DiscardTool handles the pyramid_discard MCP tool.
type DiscardTool struct {
	pipeline Pipeline
}

// NewDiscardTool creates a DiscardTool.
func NewDiscardTool(p Pipeline) *DiscardTool {
	return &DiscardTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *DiscardTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_discard",
		mcp.WithDescription(
			"Drop a run from memory without waiting for it to expire. "+
				"Its archived deliverable, if any, is kept.",
		),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run identifier returned by pyramid_plan"),
		),
	)
}

// Handle processes the pyramid_discard tool call.
func (t *DiscardTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := runID(req)
	if bad != nil {
		return bad, nil
	}
	if err := t.pipeline.Discard(id); err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(map[string]any{"run_id": id, "discarded": true})
}
