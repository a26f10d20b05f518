package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the pyramid-status MCP prompt.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("pyramid-status",
		mcp.WithPromptDescription("Check the progress of pyramid analyses and what to do next."),
		mcp.WithArgument("run_id",
			mcp.ArgumentDescription("A specific run. If omitted, all live runs are listed."),
		),
	)
}

// Handle processes the pyramid-status prompt request.
func (p *StatusPrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	first := "Please run `pyramid_list` to show my live analyses.\n\n"
	if id := req.Params.Arguments["run_id"]; id != "" {
		first = fmt.Sprintf("Please run `pyramid_status` with run_id=%q.\n\n", id)
	}

	return &mcp.GetPromptResult{
		Description: "Pyramid Analysis Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					first +
						"Then:\n" +
						"1. Show each run's stage and latest scores in a short table\n" +
						"2. Point out any diagnostics, such as searches that fell back to mock evidence\n" +
						"3. Tell me exactly which tool to call next",
				),
			},
		},
	}, nil
}
