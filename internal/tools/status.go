package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the pyramid_status MCP tool.
type StatusTool struct {
	pipeline Pipeline
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(p Pipeline) *StatusTool {
	return &StatusTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_status",
		mcp.WithDescription("Show where a run is in the pipeline, its latest scores and the next step."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run identifier returned by pyramid_plan"),
		),
	)
}

// Handle processes the pyramid_status tool call.
func (t *StatusTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := runID(req)
	if bad != nil {
		return bad, nil
	}
	res, err := t.pipeline.Status(id)
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(res)
}
