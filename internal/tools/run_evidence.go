package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// RunEvidenceTool handles the pyramid_run_evidence MCP tool.
type RunEvidenceTool struct {
	pipeline Pipeline
}

// NewRunEvidenceTool creates a RunEvidenceTool.
func NewRunEvidenceTool(p Pipeline) *RunEvidenceTool {
	return &RunEvidenceTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *RunEvidenceTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_run_evidence",
		mcp.WithDescription(
			"Gather evidence for the run's categories. Each category gets a primary-evidence "+
				"query and a current-state query, run concurrently. Re-running a category "+
				"replaces its evidence unless the server is configured to append. Slow or "+
				"failed searches fall back to deterministic mock evidence and are listed in diagnostics.",
		),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run identifier returned by pyramid_plan"),
		),
		mcp.WithString("stage",
			mcp.Description("\"all\" (default) or a single reason id such as reason_2"),
			mcp.DefaultString("all"),
		),
	)
}

// Handle processes the pyramid_run_evidence tool call.
func (t *RunEvidenceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := runID(req)
	if bad != nil {
		return bad, nil
	}
	res, err := t.pipeline.RunEvidence(ctx, id, req.GetString("stage", "all"))
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(res)
}
