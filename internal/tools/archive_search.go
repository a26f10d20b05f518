package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/minto/internal/archive"
	"github.com/HendryAvila/minto/internal/domain"
)

const snippetLen = 300

// ArchiveSearchTool handles the pyramid_archive_search MCP tool.
type ArchiveSearchTool struct {
	archive ArchiveSearcher
}

// NewArchiveSearchTool creates an ArchiveSearchTool.
func NewArchiveSearchTool(a ArchiveSearcher) *ArchiveSearchTool {
	return &ArchiveSearchTool{archive: a}
}

// Definition returns the MCP tool definition for registration.
func (t *ArchiveSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_archive_search",
		mcp.WithDescription(
			"Search finalized deliverables from past runs by keyword. Pass run_id instead "+
				"to fetch one archived deliverable in full. An empty query lists the most recent.",
		),
		mcp.WithString("query",
			mcp.Description("Keywords to match against titles, briefs and content"),
		),
		mcp.WithString("run_id",
			mcp.Description("Fetch the archived deliverable of this run"),
		),
		mcp.WithString("domain",
			mcp.Description("Filter by domain (e.g. business, technical)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 20)"),
		),
	)
}

// Handle processes the pyramid_archive_search tool call.
func (t *ArchiveSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := strings.TrimSpace(req.GetString("run_id", "")); id != "" {
		entry, err := t.archive.Get(ctx, id)
		if errors.Is(err, archive.ErrNotFound) {
			return payloadResult(errorPayload{Error: "Deliverable not archived", RunID: id}), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("archive lookup failed: %v", err)), nil
		}
		return jsonResult(entry)
	}

	d := strings.TrimSpace(req.GetString("domain", ""))
	if d != "" {
		if err := domain.ValidateDomain(domain.Domain(d)); err != nil {
			return payloadResult(errorPayload{Error: "Invalid domain", Detail: err.Error()}), nil
		}
	}

	results, err := t.archive.Search(ctx, req.GetString("query", ""), archive.SearchOptions{
		Domain: d,
		Limit:  intArg(req, "limit", 10),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No archived deliverables found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d deliverables:\n\n", len(results))
	for i, r := range results {
		status := "passed"
		if !r.Passed {
			status = "not passed"
		}
		if r.Forced {
			status += ", forced"
		}
		fmt.Fprintf(&b, "[%d] run %s (%s) - %s\n    score %.2f (%s) | %s | %s\n    %s\n\n",
			i+1, r.RunID, r.Domain, r.Title,
			r.Score, status, r.Format, r.CreatedAt,
			truncate(r.Content, snippetLen),
		)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
