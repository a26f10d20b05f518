package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// SynthesizeTool handles the pyramid_synthesize MCP tool.
type SynthesizeTool struct {
	pipeline Pipeline
}

// NewSynthesizeTool creates a SynthesizeTool.
func NewSynthesizeTool(p Pipeline) *SynthesizeTool {
	return &SynthesizeTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *SynthesizeTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_synthesize",
		mcp.WithDescription(
			"Render the pyramid: SCQA introduction, governing thought, one section per "+
				"category with its strongest evidence, a summary and the MECE banner.",
		),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run identifier returned by pyramid_plan"),
		),
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.Enum("markdown", "json", "both"),
			mcp.DefaultString("markdown"),
		),
	)
}

// Handle processes the pyramid_synthesize tool call.
func (t *SynthesizeTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := runID(req)
	if bad != nil {
		return bad, nil
	}
	res, err := t.pipeline.Synthesize(id, req.GetString("format", "markdown"))
	if err != nil {
		return errorResult(id, err), nil
	}
	return jsonResult(res)
}
