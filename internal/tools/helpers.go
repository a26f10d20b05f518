// Package tools implements the MCP tool handlers for the pyramid pipeline.
//
// Each tool is a struct that receives its dependencies through its
// constructor, exposes Definition() for registration and Handle() for
// calls. One file per tool.
//
// Handlers never return Go errors for bad input or unknown runs; those
// come back as structured JSON payloads in an error result.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/minto/internal/archive"
	"github.com/HendryAvila/minto/internal/engine"
	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/pyramid"
)

// Pipeline is the set of pyramid operations the tools call.
// *engine.Engine satisfies it.
type Pipeline interface {
	Plan(brief, audience string, constraints map[string]any) (*engine.PlanResult, error)
	ValidateMECE(id string) (*mece.Report, error)
	RunEvidence(ctx context.Context, id, stage string) (*engine.EvidenceResult, error)
	Synthesize(id, format string) (*engine.SynthesisResult, error)
	Critique(id string) (*pyramid.CritiqueResult, error)
	Finalize(ctx context.Context, id, format string, force bool) (*engine.FinalizeResult, error)
	Revise(id string, titles []string) (*engine.ReviseResult, error)
	Status(id string) (*engine.StatusResult, error)
	List() []pyramid.RunSummary
	Discard(id string) error
}

// ArchiveSearcher reads the deliverable archive. *archive.Store satisfies it.
type ArchiveSearcher interface {
	Search(ctx context.Context, query string, opts archive.SearchOptions) ([]archive.SearchResult, error)
	Get(ctx context.Context, runID string) (*archive.Entry, error)
}

// ArchiveManager maintains the deliverable archive. *archive.Store satisfies it.
type ArchiveManager interface {
	Stats(ctx context.Context) (*archive.Stats, error)
	Delete(ctx context.Context, runID string) error
}

// jsonResult marshals v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorPayload is the structured body of a failed tool call.
type errorPayload struct {
	Error  string `json:"error"`
	RunID  string `json:"run_id,omitempty"`
	Detail string `json:"detail,omitempty"`
	Status string `json:"status,omitempty"`
	Stage  string `json:"stage,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// errorResult maps an engine error to a tool error payload.
func errorResult(runID string, err error) *mcp.CallToolResult {
	p := errorPayload{RunID: runID}
	var te *pyramid.TransitionError
	switch {
	case errors.Is(err, engine.ErrRunNotFound):
		p.Error = "Run not found"
		p.Hint = "Runs expire after a period of inactivity. Start a new one with pyramid_plan."
	case errors.Is(err, engine.ErrUnknownReason):
		p.Error = "Unknown reason"
		p.Detail = err.Error()
		p.Hint = "Use \"all\" or one of the reason ids returned by pyramid_plan."
	case errors.As(err, &te):
		p.Error = "Invalid transition"
		p.Detail = te.Reason
		p.Status = string(te.Status)
		p.Stage = string(te.Stage)
		if next := pyramid.NextStep(te.Status); next != "" {
			p.Hint = "Next step: " + next
		}
	default:
		p.Error = err.Error()
	}
	return payloadResult(p)
}

// missingArg reports a required argument that was not supplied.
func missingArg(name string) *mcp.CallToolResult {
	return payloadResult(errorPayload{Error: fmt.Sprintf("'%s' is required", name)})
}

func payloadResult(p errorPayload) *mcp.CallToolResult {
	data, err := json.Marshal(p)
	if err != nil {
		return mcp.NewToolResultError(p.Error)
	}
	return mcp.NewToolResultError(string(data))
}

// runID extracts the required run_id argument.
func runID(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	id := strings.TrimSpace(req.GetString("run_id", ""))
	if id == "" {
		return "", missingArg("run_id")
	}
	return id, nil
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringsArg accepts a JSON array of strings or a newline separated string.
func stringsArg(req mcp.CallToolRequest, key string) []string {
	var out []string
	switch v := req.GetArguments()[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, v...)
	case string:
		out = strings.Split(v, "\n")
	}
	return out
}
