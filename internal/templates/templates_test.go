package templates

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/pyramid"
)

var generated = time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)

// --- Helper ---

func testRecord() *pyramid.Record {
	rec := pyramid.NewRecord("Optimize supply chain logistics for retail inventory", "COO", nil)
	rec.ID = "abcd1234"
	rec.Classification = domain.Detection{Domain: domain.Business, Confidence: 0.3}
	rec.LogicalOrder = pyramid.OrderStructural
	rec.SCQA = pyramid.SCQA{
		Situation:    "Business context regarding: Optimize supply chain logistics",
		Complication: "Current approaches face constraints",
		Question:     "Optimize supply chain logistics for retail inventory",
		Answer:       "A systematic approach addressing 3 key dimensions can resolve this challenge",
	}
	rec.GoverningThought = rec.SCQA.Answer
	rec.Reasons = []mece.Reason{
		{ID: "reason_1", Title: "Market Analysis & Trends", Claim: "Analysis of market analysis & trends reveals key insights"},
		{ID: "reason_2", Title: "Financial Performance & Drivers", Claim: "Analysis of financial performance & drivers reveals key insights"},
		{ID: "reason_3", Title: "Operational Considerations", Claim: "Analysis of operational considerations reveals key insights"},
	}
	rec.Evidence["reason_1"] = []pyramid.EvidenceItem{
		{Content: "low", Source: "Industry Report", URL: "https://example.com/low", Confidence: 0.85},
		{Content: "high", Source: "Industry Report", URL: "https://example.com/high", Confidence: 0.95},
		{Content: "mid", Source: "Industry Report", URL: "https://example.com/mid", Confidence: 0.90},
		{Content: "lowest", Source: "Industry Report", URL: "https://example.com/lowest", Confidence: 0.80},
	}
	return rec
}

// --- NewRenderer ---

func TestNewRenderer_Succeeds(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() failed: %v", err)
	}
	if r == nil {
		t.Fatal("NewRenderer() returned nil")
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, _ := NewRenderer()
	if _, err := r.Render(Name("missing.tmpl"), nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

// --- Markdown ---

func TestMarkdown_SectionsInOrder(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	md, err := r.Markdown(BuildDocument(testRecord(), 3, generated))
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}

	ordered := []string{
		"# Minto Pyramid Analysis: Optimize supply chain logistics for retail inventory",
		"**Domain:** business",
		"**Logical Order:** Structural",
		"**Audience:** COO",
		"**Generated:** 2026-02-23 12:00 UTC",
		"## Introduction (SCQA)",
		"**Situation:**",
		"**Complication:**",
		"**Question:**",
		"## Answer (Governing Thought)",
		"## Key Line (3 MECE Categories)",
		"### 1. Market Analysis & Trends",
		"1. high",
		"2. mid",
		"3. low",
		"### 2. Financial Performance & Drivers",
		"*No evidence collected for this category yet.*",
		"### 3. Operational Considerations",
		"## Summary",
		"**structural** ordering pattern",
		"**3 MECE categories**",
		"**MECE Validation:** Issues detected",
	}
	pos := 0
	for _, want := range ordered {
		i := strings.Index(md[pos:], want)
		if i < 0 {
			t.Fatalf("markdown missing %q after offset %d:\n%s", want, pos, md)
		}
		pos += i + len(want)
	}
	if strings.Contains(md, "lowest") {
		t.Error("markdown should show only the top 3 evidence items")
	}
	if strings.Contains(md, "Quality Score") {
		t.Error("quality score should be absent before critique")
	}
}

func TestMarkdown_BannersAfterValidationAndCritique(t *testing.T) {
	rec := testRecord()
	rec.MECE = &mece.Report{IsMECE: true, Coverage: 1}
	rec.Critique = &pyramid.CritiqueResult{OverallScore: 0.91, Passed: true}
	r, _ := NewRenderer()
	md, err := r.Markdown(BuildDocument(rec, 3, generated))
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	for _, want := range []string{"**Quality Score:** 0.91 (passed)", "**MECE Validation:** Passed"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

// --- JSON ---

func TestJSON_RoundTripsReasons(t *testing.T) {
	rec := testRecord()
	raw, err := JSON(BuildDocument(rec, 3, generated))
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var got Document
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.KeyLine.Count != len(rec.Reasons) {
		t.Errorf("count = %d, want %d", got.KeyLine.Count, len(rec.Reasons))
	}
	if diff := cmp.Diff(rec.Titles(), titles(got.KeyLine.Reasons)); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	if got.Evidence.TotalCount != 4 || len(got.Evidence.ByReason["reason_1"]) != 4 {
		t.Errorf("evidence = %+v", got.Evidence)
	}
	if got.Meta.RunID != "abcd1234" || got.Introduction.StructureType != "Situation-Complication-Question-Answer" {
		t.Errorf("meta/intro = %+v / %+v", got.Meta, got.Introduction)
	}
}

func TestJSON_TopLevelKeys(t *testing.T) {
	raw, err := JSON(BuildDocument(testRecord(), 3, generated))
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"meta", "introduction", "governing_thought", "key_line", "evidence", "quality_metrics"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
}

func TestBuildDocument_LongBriefTitle(t *testing.T) {
	rec := testRecord()
	rec.Brief = strings.Repeat("a", 100)
	doc := BuildDocument(rec, 3, generated)
	if !strings.HasSuffix(doc.Meta.Title, "...") || len(doc.Meta.Title) != len("Minto Pyramid Analysis: ")+60+3 {
		t.Errorf("title = %q", doc.Meta.Title)
	}
	rec.Brief = ""
	if got := BuildDocument(rec, 3, generated).Meta.Title; got != "Minto Pyramid Analysis" {
		t.Errorf("empty brief title = %q", got)
	}
}

func titles(reasons []mece.Reason) []string {
	out := make([]string, len(reasons))
	for i, r := range reasons {
		out[i] = r.Title
	}
	return out
}

// --- Principles ---

func TestPrinciples_ShowsConfiguredPolicy(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	out, err := r.Principles(PrinciplesData{MinCategories: 3, MaxCategories: 5, OverallThreshold: 0.8, AspectFloor: 0.55})
	if err != nil {
		t.Fatalf("Principles: %v", err)
	}
	for _, want := range []string{"3 to 5 categories", "**0.80**", "**0.55**", "pyramid_revise"} {
		if !strings.Contains(out, want) {
			t.Errorf("principles missing %q", want)
		}
	}
}
