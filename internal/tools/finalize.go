package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// FinalizeTool handles the pyramid_finalize MCP tool.
type FinalizeTool struct {
	pipeline Pipeline
}

// NewFinalizeTool creates a FinalizeTool.
func NewFinalizeTool(p Pipeline) *FinalizeTool {
	return &FinalizeTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *FinalizeTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_finalize",
		mcp.WithDescription(
			"Export the final deliverable of a critiqued run and archive it. Requires a "+
				"passing critique unless force is true. A finalized run cannot change.",
		),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run identifier returned by pyramid_plan"),
		),
		mcp.WithString("export_format",
			mcp.Description("Export format"),
			mcp.Enum("markdown", "json", "both"),
			mcp.DefaultString("markdown"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Finalize even if the critique did not pass"),
		),
	)
}

// Handle processes the pyramid_finalize tool call.
func (t *FinalizeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := runID(req)
	if bad != nil {
		return bad, nil
	}
	res, err := t.pipeline.Finalize(ctx, id, req.GetString("export_format", "markdown"), boolArg(req, "force", false))
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(res)
}
