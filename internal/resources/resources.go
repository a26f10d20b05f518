// Package resources implements MCP resource handlers for the pyramid pipeline.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (minto://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/minto/internal/pyramid"
	"github.com/HendryAvila/minto/internal/templates"
)

// RunLister lists live runs. *engine.Engine satisfies it.
type RunLister interface {
	List() []pyramid.RunSummary
}

// Handler manages the minto resource endpoints.
type Handler struct {
	runs       RunLister
	renderer   *templates.Renderer
	principles templates.PrinciplesData
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(runs RunLister, renderer *templates.Renderer, principles templates.PrinciplesData) *Handler {
	return &Handler{runs: runs, renderer: renderer, principles: principles}
}

// PrinciplesResource returns the MCP resource definition for the reference card.
func (h *Handler) PrinciplesResource() mcp.Resource {
	return mcp.NewResource(
		"minto://principles",
		"Minto Pyramid Principles",
		mcp.WithResourceDescription("Pyramid structure, SCQA, MECE rules and the configured quality gate"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandlePrinciples returns the reference card as markdown.
func (h *Handler) HandlePrinciples(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := h.renderer.Principles(h.principles)
	if err != nil {
		return nil, fmt.Errorf("rendering principles: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}

// RunsResource returns the MCP resource definition for the live run list.
func (h *Handler) RunsResource() mcp.Resource {
	return mcp.NewResource(
		"minto://runs",
		"Pyramid Runs",
		mcp.WithResourceDescription("Live analysis runs with their status, newest first"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleRuns returns the live runs as JSON.
func (h *Handler) HandleRuns(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(h.runs.List(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling runs: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
