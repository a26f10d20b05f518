package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/minto/internal/archive"
	"github.com/HendryAvila/minto/internal/config"
	"github.com/HendryAvila/minto/internal/engine"
	"github.com/HendryAvila/minto/internal/runs"
	"github.com/HendryAvila/minto/internal/taxonomy"
	"github.com/HendryAvila/minto/internal/templates"
)

// --- Test helpers ---

func newTestEngine(t *testing.T, arch engine.Archiver) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Deps{
		Config:  config.DefaultConfig(),
		Tables:  taxonomy.MustDefault(),
		Store:   runs.NewMemoryStore(0, 0),
		Archive: arch,
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func newTestArchive(t *testing.T) *archive.Store {
	t.Helper()
	s, err := archive.New(archive.Config{DataDir: t.TempDir(), MaxSearchResults: 20})
	if err != nil {
		t.Fatalf("archive.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	return result
}

// isErrorResult checks if a CallToolResult represents an error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decode(t *testing.T, result *mcp.CallToolResult, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(getResultText(result)), v); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, getResultText(result))
	}
}

func plan(t *testing.T, p Pipeline, brief string) string {
	t.Helper()
	result := call(t, NewPlanTool(p).Handle, map[string]interface{}{"brief": brief})
	if isErrorResult(result) {
		t.Fatalf("plan failed: %s", getResultText(result))
	}
	var out struct {
		RunID string `json:"run_id"`
	}
	decode(t, result, &out)
	return out.RunID
}

// --- Definitions ---

func TestDefinitions_Names(t *testing.T) {
	e := newTestEngine(t, nil)
	r, _ := templates.NewRenderer()
	tests := []struct {
		def  mcp.Tool
		want string
	}{
		{NewPlanTool(e).Definition(), "pyramid_plan"},
		{NewValidateMECETool(e).Definition(), "pyramid_validate_mece"},
		{NewRunEvidenceTool(e).Definition(), "pyramid_run_evidence"},
		{NewSynthesizeTool(e).Definition(), "pyramid_synthesize"},
		{NewCritiqueTool(e).Definition(), "pyramid_critique"},
		{NewFinalizeTool(e).Definition(), "pyramid_finalize"},
		{NewReviseTool(e).Definition(), "pyramid_revise"},
		{NewStatusTool(e).Definition(), "pyramid_status"},
		{NewListTool(e).Definition(), "pyramid_list"},
		{NewPrinciplesTool(r, templates.PrinciplesData{}).Definition(), "pyramid_principles"},
		{NewArchiveSearchTool(newTestArchive(t)).Definition(), "pyramid_archive_search"},
		{NewArchiveStatsTool(newTestArchive(t)).Definition(), "pyramid_archive_stats"},
		{NewArchiveDeleteTool(newTestArchive(t)).Definition(), "pyramid_archive_delete"},
		{NewDiscardTool(e).Definition(), "pyramid_discard"},
	}
	for _, tt := range tests {
		if tt.def.Name != tt.want {
			t.Errorf("name = %q, want %q", tt.def.Name, tt.want)
		}
	}
}

// --- PlanTool ---

func TestPlanTool_Handle_Success(t *testing.T) {
	e := newTestEngine(t, nil)
	result := call(t, NewPlanTool(e).Handle, map[string]interface{}{
		"brief":       "Optimize supply chain logistics for retail inventory",
		"audience":    "executives",
		"constraints": map[string]interface{}{"budget": "flat"},
	})
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	var out engine.PlanResult
	decode(t, result, &out)
	if out.RunID == "" {
		t.Error("run_id should be set")
	}
	if out.Domain != "business" {
		t.Errorf("domain = %q, want business", out.Domain)
	}
	if n := len(out.Reasons); n < 3 || n > 4 {
		t.Errorf("reasons = %d, want 3-4", n)
	}

	rec, err := e.Get(out.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Constraints["budget"] != "flat" || rec.Audience != "executives" {
		t.Errorf("constraints/audience not stored: %+v %q", rec.Constraints, rec.Audience)
	}
}

func TestPlanTool_Handle_MissingBrief(t *testing.T) {
	e := newTestEngine(t, nil)
	result := call(t, NewPlanTool(e).Handle, map[string]interface{}{"brief": "  "})
	if !isErrorResult(result) {
		t.Fatal("expected error for blank brief")
	}
	if !strings.Contains(getResultText(result), "'brief' is required") {
		t.Errorf("error = %s", getResultText(result))
	}
}

// --- Error payloads ---

func TestTools_UnknownRunPayload(t *testing.T) {
	e := newTestEngine(t, nil)
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"validate":   NewValidateMECETool(e).Handle,
		"evidence":   NewRunEvidenceTool(e).Handle,
		"synthesize": NewSynthesizeTool(e).Handle,
		"critique":   NewCritiqueTool(e).Handle,
		"finalize":   NewFinalizeTool(e).Handle,
		"status":     NewStatusTool(e).Handle,
		"discard":    NewDiscardTool(e).Handle,
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			result := call(t, h, map[string]interface{}{"run_id": "deadbeef"})
			if !isErrorResult(result) {
				t.Fatal("expected error result")
			}
			var p errorPayload
			decode(t, result, &p)
			if p.Error != "Run not found" || p.RunID != "deadbeef" {
				t.Errorf("payload = %+v", p)
			}
		})
	}
}

func TestTools_MissingRunID(t *testing.T) {
	e := newTestEngine(t, nil)
	result := call(t, NewStatusTool(e).Handle, map[string]interface{}{})
	if !isErrorResult(result) || !strings.Contains(getResultText(result), "'run_id' is required") {
		t.Errorf("result = %s", getResultText(result))
	}
}

func TestTools_InvalidTransitionPayload(t *testing.T) {
	e := newTestEngine(t, nil)
	id := plan(t, e, "Reduce supplier costs")

	result := call(t, NewCritiqueTool(e).Handle, map[string]interface{}{"run_id": id})
	if !isErrorResult(result) {
		t.Fatal("expected error critiquing a planned run")
	}
	var p errorPayload
	decode(t, result, &p)
	if p.Error != "Invalid transition" || p.Status != "planned" || p.Stage != "critique" {
		t.Errorf("payload = %+v", p)
	}
	if p.Hint != "Next step: run_evidence" {
		t.Errorf("hint = %q", p.Hint)
	}
}

func TestRunEvidenceTool_UnknownReason(t *testing.T) {
	e := newTestEngine(t, nil)
	id := plan(t, e, "Reduce supplier costs")

	result := call(t, NewRunEvidenceTool(e).Handle, map[string]interface{}{"run_id": id, "stage": "reason_7"})
	var p errorPayload
	decode(t, result, &p)
	if !isErrorResult(result) || p.Error != "Unknown reason" {
		t.Errorf("payload = %+v", p)
	}
}

// --- Full flow ---

func TestTools_FullFlow(t *testing.T) {
	arch := newTestArchive(t)
	e := newTestEngine(t, arch)
	id := plan(t, e, "Reduce supplier costs")

	steps := []struct {
		name string
		h    func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args map[string]interface{}
	}{
		{"validate", NewValidateMECETool(e).Handle, map[string]interface{}{"run_id": id}},
		{"revise", NewReviseTool(e).Handle, map[string]interface{}{
			"run_id": id,
			"titles": []interface{}{"Supplier Consolidation Strategy", "Techniques to Reduce Costs", "Negotiation Approach"},
		}},
		{"evidence", NewRunEvidenceTool(e).Handle, map[string]interface{}{"run_id": id}},
		{"synthesize", NewSynthesizeTool(e).Handle, map[string]interface{}{"run_id": id, "format": "both"}},
		{"critique", NewCritiqueTool(e).Handle, map[string]interface{}{"run_id": id}},
		{"finalize", NewFinalizeTool(e).Handle, map[string]interface{}{"run_id": id, "force": true}},
	}
	var last *mcp.CallToolResult
	for _, s := range steps {
		last = call(t, s.h, s.args)
		if isErrorResult(last) {
			t.Fatalf("%s failed: %s", s.name, getResultText(last))
		}
	}

	var fin engine.FinalizeResult
	decode(t, last, &fin)
	if fin.Status != "finalized" || !fin.Archived {
		t.Errorf("finalize = %+v", fin)
	}
	if !strings.Contains(fin.Markdown, "## Key Line (3 MECE Categories)") {
		t.Error("deliverable should contain the key line")
	}

	search := call(t, NewArchiveSearchTool(arch).Handle, map[string]interface{}{"query": "negotiation"})
	if text := getResultText(search); !strings.Contains(text, "Found 1 deliverables") || !strings.Contains(text, id) {
		t.Errorf("archive search = %s", text)
	}

	got := call(t, NewArchiveSearchTool(arch).Handle, map[string]interface{}{"run_id": id})
	var entry archive.Entry
	decode(t, got, &entry)
	if entry.RunID != id || entry.Content != fin.Markdown {
		t.Errorf("archived entry = %+v", entry)
	}

	stats := getResultText(call(t, NewArchiveStatsTool(arch).Handle, map[string]interface{}{}))
	if !strings.Contains(stats, "Archive: 1 deliverables") || !strings.Contains(stats, entry.Domain) {
		t.Errorf("archive stats = %s", stats)
	}

	del := call(t, NewArchiveDeleteTool(arch).Handle, map[string]interface{}{"run_id": id})
	if isErrorResult(del) {
		t.Fatalf("archive delete failed: %s", getResultText(del))
	}
	again := call(t, NewArchiveDeleteTool(arch).Handle, map[string]interface{}{"run_id": id})
	var p errorPayload
	decode(t, again, &p)
	if !isErrorResult(again) || p.Error != "Deliverable not archived" {
		t.Errorf("second delete payload = %+v", p)
	}
	if text := getResultText(call(t, NewArchiveStatsTool(arch).Handle, map[string]interface{}{})); !strings.Contains(text, "archive is empty") {
		t.Errorf("stats after delete = %s", text)
	}
}

// --- DiscardTool ---

func TestDiscardTool_DropsRun(t *testing.T) {
	e := newTestEngine(t, nil)
	id := plan(t, e, "Reduce supplier costs")

	result := call(t, NewDiscardTool(e).Handle, map[string]interface{}{"run_id": id})
	if isErrorResult(result) {
		t.Fatalf("discard failed: %s", getResultText(result))
	}
	var out struct {
		RunID     string `json:"run_id"`
		Discarded bool   `json:"discarded"`
	}
	decode(t, result, &out)
	if out.RunID != id || !out.Discarded {
		t.Errorf("discard = %+v", out)
	}

	status := call(t, NewStatusTool(e).Handle, map[string]interface{}{"run_id": id})
	var p errorPayload
	decode(t, status, &p)
	if p.Error != "Run not found" {
		t.Errorf("status after discard = %+v", p)
	}
}

// --- ReviseTool ---

func TestReviseTool_NewlineTitles(t *testing.T) {
	e := newTestEngine(t, nil)
	id := plan(t, e, "Reduce supplier costs")

	result := call(t, NewReviseTool(e).Handle, map[string]interface{}{
		"run_id": id,
		"titles": "Market Analysis\nPricing Strategy\nChannel Design",
	})
	if isErrorResult(result) {
		t.Fatalf("revise failed: %s", getResultText(result))
	}
	var out engine.ReviseResult
	decode(t, result, &out)
	if len(out.Reasons) != 3 || out.Reasons[1].Title != "Pricing Strategy" {
		t.Errorf("reasons = %+v", out.Reasons)
	}
}

func TestReviseTool_MissingTitles(t *testing.T) {
	e := newTestEngine(t, nil)
	id := plan(t, e, "Reduce supplier costs")
	result := call(t, NewReviseTool(e).Handle, map[string]interface{}{"run_id": id})
	if !isErrorResult(result) {
		t.Error("expected error without titles")
	}
}

// --- ListTool / StatusTool ---

func TestListTool_Handle(t *testing.T) {
	e := newTestEngine(t, nil)
	plan(t, e, "Reduce supplier costs")
	plan(t, e, "Design a distributed cache")

	var out struct {
		Count int `json:"count"`
	}
	decode(t, call(t, NewListTool(e).Handle, map[string]interface{}{}), &out)
	if out.Count != 2 {
		t.Errorf("count = %d, want 2", out.Count)
	}
}

func TestStatusTool_Handle(t *testing.T) {
	e := newTestEngine(t, nil)
	id := plan(t, e, "Reduce supplier costs")

	var out engine.StatusResult
	decode(t, call(t, NewStatusTool(e).Handle, map[string]interface{}{"run_id": id}), &out)
	if out.ID != id || out.Status != "planned" || out.NextStep != "run_evidence" {
		t.Errorf("status = %+v", out)
	}
}

// --- PrinciplesTool ---

func TestPrinciplesTool_Handle(t *testing.T) {
	r, err := templates.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	result := call(t, NewPrinciplesTool(r, templates.PrinciplesData{MinCategories: 3, MaxCategories: 4, OverallThreshold: 0.75, AspectFloor: 0.6}).Handle, nil)
	text := getResultText(result)
	if !strings.Contains(text, "# The Minto Pyramid Principle") || !strings.Contains(text, "3 to 4 categories") {
		t.Errorf("principles = %s", text)
	}
}

// --- ArchiveSearchTool ---

func TestArchiveSearchTool_Empty(t *testing.T) {
	result := call(t, NewArchiveSearchTool(newTestArchive(t)).Handle, map[string]interface{}{"query": "anything"})
	if isErrorResult(result) {
		t.Fatalf("unexpected error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), "No archived deliverables") {
		t.Errorf("result = %s", getResultText(result))
	}
}

func TestArchiveSearchTool_InvalidDomain(t *testing.T) {
	result := call(t, NewArchiveSearchTool(newTestArchive(t)).Handle, map[string]interface{}{"domain": "astrology"})
	var p errorPayload
	decode(t, result, &p)
	if !isErrorResult(result) || p.Error != "Invalid domain" || !strings.Contains(p.Detail, "astrology") {
		t.Errorf("payload = %+v", p)
	}
}

func TestArchiveSearchTool_RunNotArchived(t *testing.T) {
	result := call(t, NewArchiveSearchTool(newTestArchive(t)).Handle, map[string]interface{}{"run_id": "deadbeef"})
	var p errorPayload
	decode(t, result, &p)
	if !isErrorResult(result) || p.Error != "Deliverable not archived" {
		t.Errorf("payload = %+v", p)
	}
}
