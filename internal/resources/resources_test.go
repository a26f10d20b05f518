package resources

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/minto/internal/pyramid"
	"github.com/HendryAvila/minto/internal/templates"
)

type staticRuns []pyramid.RunSummary

func (s staticRuns) List() []pyramid.RunSummary { return s }

func newTestHandler(t *testing.T, runs RunLister) *Handler {
	t.Helper()
	r, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return NewHandler(runs, r, templates.PrinciplesData{MinCategories: 3, MaxCategories: 4, OverallThreshold: 0.75, AspectFloor: 0.6})
}

func readText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content is %T", contents[0])
	}
	return tc.Text
}

func TestPrinciples(t *testing.T) {
	h := newTestHandler(t, staticRuns{})
	if h.PrinciplesResource().URI != "minto://principles" {
		t.Errorf("URI = %q", h.PrinciplesResource().URI)
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "minto://principles"
	contents, err := h.HandlePrinciples(context.Background(), req)
	if err != nil {
		t.Fatalf("HandlePrinciples: %v", err)
	}
	if text := readText(t, contents); !strings.Contains(text, "**0.75**") {
		t.Errorf("principles = %s", text)
	}
}

func TestRuns(t *testing.T) {
	created := time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	h := newTestHandler(t, staticRuns{
		{ID: "abcd1234", Brief: "Reduce supplier costs", Domain: "business", Status: pyramid.StatusPlanned, Reasons: 3, CreatedAt: created, UpdatedAt: created},
	})

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "minto://runs"
	contents, err := h.HandleRuns(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleRuns: %v", err)
	}

	var got []pyramid.RunSummary
	if err := json.Unmarshal([]byte(readText(t, contents)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].ID != "abcd1234" || got[0].Status != pyramid.StatusPlanned {
		t.Errorf("runs = %+v", got)
	}
}
