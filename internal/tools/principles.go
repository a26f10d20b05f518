package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/minto/internal/templates"
)

// PrinciplesTool handles the pyramid_principles MCP tool.
// It returns the reference card with the configured policy filled in.
type PrinciplesTool struct {
	renderer *templates.Renderer
	data     templates.PrinciplesData
}

// NewPrinciplesTool creates a PrinciplesTool.
func NewPrinciplesTool(renderer *templates.Renderer, data templates.PrinciplesData) *PrinciplesTool {
	return &PrinciplesTool{renderer: renderer, data: data}
}

// Definition returns the MCP tool definition for registration.
func (t *PrinciplesTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_principles",
		mcp.WithDescription(
			"Explain the Minto Pyramid Principle, the SCQA introduction, the MECE rules "+
				"and the quality gate this server applies.",
		),
	)
}

// Handle processes the pyramid_principles tool call.
func (t *PrinciplesTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := t.renderer.Principles(t.data)
	if err != nil {
		return nil, fmt.Errorf("rendering principles: %w", err)
	}
	return mcp.NewToolResultText(text), nil
}
