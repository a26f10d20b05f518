package templates

import (
	"time"

	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/evidence"
	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/pyramid"
)

// Document is the format-neutral pyramid tree. The JSON deliverable is
// this struct marshaled; the markdown deliverable renders it.
type Document struct {
	Meta             Meta            `json:"meta"`
	Introduction     Introduction    `json:"introduction"`
	GoverningThought string          `json:"governing_thought"`
	KeyLine          KeyLine         `json:"key_line"`
	Evidence         EvidenceSection `json:"evidence"`
	Quality          QualityMetrics  `json:"quality_metrics"`
	Sections         []Section       `json:"-"`
	Diagnostics      []string        `json:"diagnostics,omitempty"`
}

// Meta identifies the run behind the document.
type Meta struct {
	RunID        string               `json:"run_id"`
	Title        string               `json:"title"`
	Brief        string               `json:"brief"`
	Audience     string               `json:"audience,omitempty"`
	Domain       domain.Domain        `json:"domain"`
	Subdomain    string               `json:"subdomain,omitempty"`
	Confidence   float64              `json:"confidence"`
	LogicalOrder pyramid.LogicalOrder `json:"logical_order"`
	Status       pyramid.Status       `json:"status"`
	CreatedAt    time.Time            `json:"created_at"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

// Introduction wraps the SCQA block.
type Introduction struct {
	SCQA          pyramid.SCQA `json:"scqa"`
	StructureType string       `json:"structure_type"`
}

// KeyLine lists the reasons directly under the governing thought.
type KeyLine struct {
	Reasons       []mece.Reason        `json:"reasons"`
	Count         int                  `json:"count"`
	LogicalOrder  pyramid.LogicalOrder `json:"logical_order"`
	MECEValidated bool                 `json:"mece_validated"`
}

// EvidenceSection holds every evidence item grouped by reason.
type EvidenceSection struct {
	ByReason   map[string][]pyramid.EvidenceItem `json:"by_reason"`
	TotalCount int                               `json:"total_count"`
	Summary    []pyramid.ReasonSummary           `json:"summary"`
}

// QualityMetrics carries the latest MECE report and critique, if any.
type QualityMetrics struct {
	MECE     *mece.Report            `json:"mece_validation,omitempty"`
	Critique *pyramid.CritiqueResult `json:"critique,omitempty"`
}

// Section is one key-line reason with the evidence shown in markdown.
type Section struct {
	Number   int
	Title    string
	Claim    string
	Evidence []pyramid.EvidenceItem
}

const titleBriefLen = 60

// BuildDocument assembles the pyramid tree from a record. Markdown
// sections show at most topN items per reason, highest confidence first.
func BuildDocument(rec *pyramid.Record, topN int, generatedAt time.Time) Document {
	byReason := make(map[string][]pyramid.EvidenceItem, len(rec.Reasons))
	sections := make([]Section, len(rec.Reasons))
	for i, r := range rec.Reasons {
		items := rec.Evidence[r.ID]
		if items == nil {
			items = []pyramid.EvidenceItem{}
		}
		byReason[r.ID] = items
		sections[i] = Section{
			Number:   i + 1,
			Title:    r.Title,
			Claim:    r.Claim,
			Evidence: evidence.TopItems(items, topN),
		}
	}
	summary := rec.EvidenceSummary
	if summary == nil {
		summary = []pyramid.ReasonSummary{}
	}

	title := "Minto Pyramid Analysis"
	if b := []rune(rec.Brief); len(b) > 0 {
		if len(b) > titleBriefLen {
			b = append(b[:titleBriefLen], []rune("...")...)
		}
		title += ": " + string(b)
	}

	return Document{
		Meta: Meta{
			RunID:        rec.ID,
			Title:        title,
			Brief:        rec.Brief,
			Audience:     rec.Audience,
			Domain:       rec.Domain(),
			Subdomain:    rec.Classification.Subdomain,
			Confidence:   rec.Classification.Confidence,
			LogicalOrder: rec.LogicalOrder,
			Status:       rec.Status,
			CreatedAt:    rec.CreatedAt,
			GeneratedAt:  generatedAt.UTC(),
		},
		Introduction: Introduction{
			SCQA:          rec.SCQA,
			StructureType: "Situation-Complication-Question-Answer",
		},
		GoverningThought: rec.GoverningThought,
		KeyLine: KeyLine{
			Reasons:       append([]mece.Reason{}, rec.Reasons...),
			Count:         len(rec.Reasons),
			LogicalOrder:  rec.LogicalOrder,
			MECEValidated: rec.MECE != nil && rec.MECE.IsMECE,
		},
		Evidence: EvidenceSection{
			ByReason:   byReason,
			TotalCount: rec.EvidenceCount(),
			Summary:    summary,
		},
		Quality: QualityMetrics{
			MECE:     rec.MECE,
			Critique: rec.Critique,
		},
		Sections:    sections,
		Diagnostics: rec.Diagnostics,
	}
}
