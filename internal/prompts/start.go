// Package prompts implements MCP prompt handlers for the pyramid pipeline.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the pyramid-start MCP prompt.
// It walks the AI through a full analysis of one brief.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("pyramid-start",
		mcp.WithPromptDescription(
			"Analyze a question with the Minto Pyramid Principle: plan the key line, "+
				"gather evidence, synthesize, critique and finalize.",
		),
		mcp.WithArgument("brief",
			mcp.ArgumentDescription("The question or problem to analyze"),
		),
		mcp.WithArgument("audience",
			mcp.ArgumentDescription("Who the deliverable is for. Default: executives"),
		),
	)
}

// Handle processes the pyramid-start prompt request.
func (p *StartPrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	brief := ""
	audience := "executives"
	if args := req.Params.Arguments; args != nil {
		if b, ok := args["brief"]; ok {
			brief = strings.TrimSpace(b)
		}
		if a, ok := args["audience"]; ok && a != "" {
			audience = a
		}
	}

	briefStep := fmt.Sprintf("1. Run `pyramid_plan` with brief=%q and audience=%q\n", brief, audience)
	description := "Start pyramid analysis"
	if brief == "" {
		briefStep = fmt.Sprintf("1. Ask me for the question to analyze, then run `pyramid_plan` with it and audience=%q\n", audience)
	} else {
		description += ": " + brief
	}

	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"I want a structured answer built with the Minto Pyramid Principle.\n\n" +
						"Please:\n" +
						briefStep +
						"2. Show me the governing thought and key-line categories, then run `pyramid_validate_mece`\n" +
						"3. If the categories overlap or leave gaps, propose better titles and apply them with `pyramid_revise`\n" +
						"4. Run `pyramid_run_evidence` with stage=\"all\"\n" +
						"5. Run `pyramid_synthesize` and then `pyramid_critique`\n" +
						"6. If the critique fails, explain the weak aspects and revise; otherwise run `pyramid_finalize`\n\n" +
						"Call `pyramid_principles` first if you need a refresher on the rules.",
				),
			},
		},
	}, nil
}
