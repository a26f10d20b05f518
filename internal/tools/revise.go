package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviseTool handles the pyramid_revise MCP tool.
type ReviseTool struct {
	pipeline Pipeline
}

// NewReviseTool creates a ReviseTool.
func NewReviseTool(p Pipeline) *ReviseTool {
	return &ReviseTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *ReviseTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_revise",
		mcp.WithDescription(
			"Replace the run's key-line categories and send it back to planned. Evidence, "+
				"critique and deliverable are discarded. Titles are clamped to the configured "+
				"category bounds; corrections are returned as warnings.",
		),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run identifier returned by pyramid_plan"),
		),
		mcp.WithArray("titles",
			mcp.Required(),
			mcp.Description("New category titles, in key-line order"),
			mcp.WithStringItems(),
		),
	)
}

// Handle processes the pyramid_revise tool call.
func (t *ReviseTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := runID(req)
	if bad != nil {
		return bad, nil
	}
	titles := stringsArg(req, "titles")
	if len(titles) == 0 {
		return missingArg("titles"), nil
	}
	res, err := t.pipeline.Revise(id, titles)
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(res)
}
