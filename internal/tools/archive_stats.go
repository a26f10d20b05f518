package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ArchiveStatsTool handles the pyramid_archive_stats MCP tool.
type ArchiveStatsTool struct {
	archive ArchiveManager
}

// NewArchiveStatsTool creates an ArchiveStatsTool.
func NewArchiveStatsTool(a ArchiveManager) *ArchiveStatsTool {
	return &ArchiveStatsTool{archive: a}
}

// Definition returns the MCP tool definition for registration.
func (t *ArchiveStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_archive_stats",
		mcp.WithDescription("Summarize the deliverable archive: totals, how many passed critique, and counts per domain."),
	)
}

// Handle processes the pyramid_archive_stats tool call.
func (t *ArchiveStatsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.archive.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("archive stats failed: %v", err)), nil
	}
	if st.Total == 0 {
		return mcp.NewToolResultText("The archive is empty. Finalized runs are archived automatically."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Archive: %d deliverables (%d passed critique)\n", st.Total, st.Passed)
	domains := make([]string, 0, len(st.ByDomain))
	for d := range st.ByDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, d := range domains {
		fmt.Fprintf(&b, "  %-18s %d\n", d, st.ByDomain[d])
	}
	return mcp.NewToolResultText(b.String()), nil
}
