package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// CritiqueTool handles the pyramid_critique MCP tool.
type CritiqueTool struct {
	pipeline Pipeline
}

// NewCritiqueTool creates a CritiqueTool.
func NewCritiqueTool(p Pipeline) *CritiqueTool {
	return &CritiqueTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *CritiqueTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_critique",
		mcp.WithDescription(
			"Score the synthesized pyramid on each quality aspect (SCQA, governing thought, "+
				"MECE, vertical and horizontal logic, ordering, evidence sufficiency, consistency, "+
				"cognitive load). The run passes when the mean clears the overall threshold "+
				"and no aspect falls below the floor.",
		),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run identifier returned by pyramid_plan"),
		),
	)
}

// Handle processes the pyramid_critique tool call.
func (t *CritiqueTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := runID(req)
	if bad != nil {
		return bad, nil
	}
	res, err := t.pipeline.Critique(id)
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(res)
}
