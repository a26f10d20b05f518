// Package pyramid holds the analysis record threaded through the pipeline
// and the state machine that guards its stages.
//
// A record moves planned → evidence_collected → synthesized → critiqued →
// finalized. Stages only move it forward, with one exception: revise sends
// a non-finalized record back to planned.
package pyramid

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/mece"
)

// --- Status enum ---

// Status is the lifecycle position of an analysis record.
type Status string

const (
	StatusPlanned           Status = "planned"
	StatusEvidenceCollected Status = "evidence_collected"
	StatusSynthesized       Status = "synthesized"
	StatusCritiqued         Status = "critiqued"
	StatusFinalized         Status = "finalized"
)

// statusRank orders statuses for forward-only advancement.
var statusRank = map[Status]int{
	StatusPlanned:           0,
	StatusEvidenceCollected: 1,
	StatusSynthesized:       2,
	StatusCritiqued:         3,
	StatusFinalized:         4,
}

// --- Logical order enum ---

// LogicalOrder is how the key-line reasons are sequenced.
type LogicalOrder string

const (
	OrderDeductive     LogicalOrder = "deductive"
	OrderChronological LogicalOrder = "chronological"
	OrderStructural    LogicalOrder = "structural"
	OrderComparative   LogicalOrder = "comparative"
)

var validOrders = map[LogicalOrder]bool{
	OrderDeductive:     true,
	OrderChronological: true,
	OrderStructural:    true,
	OrderComparative:   true,
}

// ValidateLogicalOrder returns an error if o is not a known order.
func ValidateLogicalOrder(o LogicalOrder) error {
	if !validOrders[o] {
		return fmt.Errorf("invalid logical order %q: must be one of: deductive, chronological, structural, comparative", o)
	}
	return nil
}

// --- Evidence ---

// Evidence task purposes.
const (
	PurposePrimary = "primary_evidence"
	PurposeCurrent = "current_state"
)

// Evidence origins.
const (
	OriginMock = "mock"
	OriginHTTP = "http"
)

// EvidenceTask is one planned search query for a reason.
type EvidenceTask struct {
	ReasonID   string            `json:"reason_id"`
	Query      string            `json:"query"`
	SearchType domain.SearchType `json:"search_type"`
	Purpose    string            `json:"purpose"`
	Sites      []string          `json:"sites,omitempty"`
}

// Provenance records where an evidence item came from.
type Provenance struct {
	Query       string    `json:"query"`
	Purpose     string    `json:"purpose"`
	Rank        int       `json:"rank"`
	Origin      string    `json:"origin"`
	Degraded    bool      `json:"degraded,omitempty"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// EvidenceItem is one piece of support for a reason.
type EvidenceItem struct {
	Content    string     `json:"content"`
	Source     string     `json:"source"`
	URL        string     `json:"url"`
	Confidence float64    `json:"confidence"`
	Relevance  float64    `json:"relevance,omitempty"`
	Recency    string     `json:"recency,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// ReasonSummary aggregates the evidence gathered for one reason.
type ReasonSummary struct {
	ReasonID      string   `json:"reason_id"`
	Title         string   `json:"title"`
	EvidenceCount int      `json:"evidence_count"`
	AvgConfidence float64  `json:"avg_confidence"`
	AvgRelevance  float64  `json:"avg_relevance"`
	Sources       []string `json:"sources"`
}

// --- Critique ---

// Aspect is one scored dimension of the quality critique.
type Aspect struct {
	Name     string   `json:"aspect"`
	Score    float64  `json:"score"`
	Findings []string `json:"findings"`
	Passed   bool     `json:"passed"`
}

// CritiqueResult is the full quality report for a record.
type CritiqueResult struct {
	Aspects          []Aspect  `json:"critiques"`
	OverallScore     float64   `json:"overall_score"`
	Passed           bool      `json:"passed"`
	OverallThreshold float64   `json:"overall_threshold"`
	AspectFloor      float64   `json:"aspect_floor"`
	Summary          string    `json:"summary"`
	CritiquedAt      time.Time `json:"critiqued_at"`
}

// --- Deliverable ---

// Deliverable formats.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatBoth     = "both"
)

// ValidateFormat returns an error if f is not a known deliverable format.
func ValidateFormat(f string) error {
	switch f {
	case FormatMarkdown, FormatJSON, FormatBoth:
		return nil
	}
	return fmt.Errorf("invalid format %q: must be one of: markdown, json, both", f)
}

// Deliverable is a rendered pyramid document.
type Deliverable struct {
	Format      string          `json:"format"`
	Markdown    string          `json:"markdown,omitempty"`
	JSON        json.RawMessage `json:"json,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// --- Record ---

// SCQA is the Situation-Complication-Question-Answer introduction.
type SCQA struct {
	Situation    string `json:"situation"`
	Complication string `json:"complication"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
}

// Record is the analysis state for one run.
//
// Nested reports (MECE, Critique, Deliverable) are replaced as a whole
// when a stage re-runs and are never mutated in place.
type Record struct {
	ID                string                    `json:"run_id"`
	Brief             string                    `json:"brief"`
	Audience          string                    `json:"audience,omitempty"`
	Constraints       map[string]any            `json:"constraints,omitempty"`
	Classification    domain.Detection          `json:"classification"`
	TemplateSource    string                    `json:"template_source"`
	SelectionWarnings []string                  `json:"selection_warnings,omitempty"`
	Reasons           []mece.Reason             `json:"reasons"`
	SCQA              SCQA                      `json:"scqa"`
	GoverningThought  string                    `json:"governing_thought"`
	LogicalOrder      LogicalOrder              `json:"logical_order"`
	EvidenceTasks     []EvidenceTask            `json:"evidence_tasks"`
	Evidence          map[string][]EvidenceItem `json:"evidence,omitempty"`
	EvidenceSummary   []ReasonSummary           `json:"evidence_summary,omitempty"`
	MECE              *mece.Report              `json:"mece_validation,omitempty"`
	Critique          *CritiqueResult           `json:"critique,omitempty"`
	Deliverable       *Deliverable              `json:"deliverable,omitempty"`
	Diagnostics       []string                  `json:"diagnostics,omitempty"`
	Status            Status                    `json:"status"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
}

// NewRecord creates a planned record for a brief. The ID is assigned by the store.
func NewRecord(brief, audience string, constraints map[string]any) *Record {
	now := timeNow().UTC()
	return &Record{
		Brief:       brief,
		Audience:    audience,
		Constraints: constraints,
		Evidence:    make(map[string][]EvidenceItem),
		Status:      StatusPlanned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Domain is shorthand for the classified domain.
func (r *Record) Domain() domain.Domain {
	return r.Classification.Domain
}

// Reason returns the reason with the given id.
func (r *Record) Reason(id string) (mece.Reason, bool) {
	for _, reason := range r.Reasons {
		if reason.ID == id {
			return reason, true
		}
	}
	return mece.Reason{}, false
}

// Titles returns the reason titles in order.
func (r *Record) Titles() []string {
	titles := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		titles[i] = reason.Title
	}
	return titles
}

// EvidenceCount returns the total number of evidence items across reasons.
func (r *Record) EvidenceCount() int {
	n := 0
	for _, items := range r.Evidence {
		n += len(items)
	}
	return n
}

// RunSummary is the compact listing form of a record.
type RunSummary struct {
	ID        string        `json:"run_id"`
	Brief     string        `json:"brief"`
	Domain    domain.Domain `json:"domain"`
	Status    Status        `json:"status"`
	Reasons   int           `json:"reasons"`
	Evidence  int           `json:"evidence"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

const summaryBriefLen = 80

// Summary returns the listing form of the record.
func (r *Record) Summary() RunSummary {
	brief := r.Brief
	if runes := []rune(brief); len(runes) > summaryBriefLen {
		brief = string(runes[:summaryBriefLen]) + "..."
	}
	return RunSummary{
		ID:        r.ID,
		Brief:     brief,
		Domain:    r.Domain(),
		Status:    r.Status,
		Reasons:   len(r.Reasons),
		Evidence:  r.EvidenceCount(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
