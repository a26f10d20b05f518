package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ListTool handles the pyramid_list MCP tool.
type ListTool struct {
	pipeline Pipeline
}

// NewListTool creates a ListTool.
func NewListTool(p Pipeline) *ListTool {
	return &ListTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_list",
		mcp.WithDescription("List live runs, newest first. Idle runs expire."),
	)
}

// Handle processes the pyramid_list tool call.
func (t *ListTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs := t.pipeline.List()
	return jsonResult(map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}
