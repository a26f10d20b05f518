package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// PlanTool handles the pyramid_plan MCP tool.
// It classifies a brief and proposes the pyramid skeleton.
type PlanTool struct {
	pipeline Pipeline
}

// NewPlanTool creates a PlanTool.
func NewPlanTool(p Pipeline) *PlanTool {
	return &PlanTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_plan",
		mcp.WithDescription(
			"Start a Minto Pyramid analysis. Classifies the brief into a domain, selects "+
				"3-4 MECE key-line categories, frames the SCQA introduction and plans the "+
				"evidence queries. Returns the run_id used by every other pyramid tool.",
		),
		mcp.WithString("brief",
			mcp.Required(),
			mcp.Description("The question or problem to analyze"),
		),
		mcp.WithString("audience",
			mcp.Description("Who the deliverable is for (e.g. executives, engineers)"),
		),
		mcp.WithObject("constraints",
			mcp.Description("Optional free-form constraints such as budget or deadline"),
		),
	)
}

// Handle processes the pyramid_plan tool call.
func (t *PlanTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	brief := strings.TrimSpace(req.GetString("brief", ""))
	if brief == "" {
		return missingArg("brief"), nil
	}
	audience := req.GetString("audience", "")

	var constraints map[string]any
	switch v := req.GetArguments()["constraints"].(type) {
	case map[string]any:
		constraints = v
	case string:
		if s := strings.TrimSpace(v); s != "" {
			constraints = map[string]any{"notes": s}
		}
	}

	res, err := t.pipeline.Plan(brief, audience, constraints)
	if err != nil {
		return errorResult("", err), nil
	}
	return jsonResult(res)
}
