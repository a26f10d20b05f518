package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ValidateMECETool handles the pyramid_validate_mece MCP tool.
type ValidateMECETool struct {
	pipeline Pipeline
}

// NewValidateMECETool creates a ValidateMECETool.
func NewValidateMECETool(p Pipeline) *ValidateMECETool {
	return &ValidateMECETool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *ValidateMECETool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_validate_mece",
		mcp.WithDescription(
			"Check the run's key-line categories for MECE: mutual exclusivity (title overlaps), "+
				"collective exhaustiveness (coverage of the brief's key concepts), cognitive load "+
				"(category count) and same-kind grouping. These are lexical heuristics.",
		),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run identifier returned by pyramid_plan"),
		),
	)
}

// Handle processes the pyramid_validate_mece tool call.
func (t *ValidateMECETool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := runID(req)
	if bad != nil {
		return bad, nil
	}
	report, err := t.pipeline.ValidateMECE(id)
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(report)
}
