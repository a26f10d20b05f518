package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/minto/internal/archive"
)

// ArchiveDeleteTool handles the pyramid_archive_delete MCP tool.
type ArchiveDeleteTool struct {
	archive ArchiveManager
}

// NewArchiveDeleteTool creates an ArchiveDeleteTool.
func NewArchiveDeleteTool(a ArchiveManager) *ArchiveDeleteTool {
	return &ArchiveDeleteTool{archive: a}
}

// Definition returns the MCP tool definition for registration.
func (t *ArchiveDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("pyramid_archive_delete",
		mcp.WithDescription("Remove the archived deliverable of a run. The run itself, if still live, is untouched."),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run whose deliverable should be removed"),
		),
	)
}

// Handle processes the pyramid_archive_delete tool call.
func (t *ArchiveDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, bad := runID(req)
	if bad != nil {
		return bad, nil
	}
	err := t.archive.Delete(ctx, id)
	if errors.Is(err, archive.ErrNotFound) {
		return payloadResult(errorPayload{Error: "Deliverable not archived", RunID: id}), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("archive delete failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"run_id": id, "deleted": true})
}
