package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/evidence"
	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/pyramid"
)

// PlanResult is what Plan returns.
type PlanResult struct {
	RunID             string               `json:"run_id"`
	Domain            domain.Domain        `json:"domain"`
	Subdomain         string               `json:"subdomain,omitempty"`
	Confidence        float64              `json:"confidence"`
	Interdisciplinary bool                 `json:"is_interdisciplinary"`
	Lenses            []domain.Lens        `json:"lenses"`
	ProblemType       string               `json:"problem_type"`
	TemplateSource    string               `json:"template_source"`
	Reasons           []mece.Reason        `json:"reasons"`
	SCQA              pyramid.SCQA         `json:"scqa"`
	GoverningThought  string               `json:"governing_thought"`
	LogicalOrder      pyramid.LogicalOrder `json:"logical_order"`
	EvidenceTasks     int                  `json:"evidence_tasks"`
	Warnings          []string             `json:"warnings,omitempty"`
	Status            pyramid.Status       `json:"status"`
	NextStep          string               `json:"next_step"`
}

const situationBriefLen = 80

// Plan classifies a brief, selects the key-line categories, frames the
// SCQA introduction and stores a new planned run. Degenerate briefs fall
// through to the general domain and the fallback template.
func (e *Engine) Plan(brief, audience string, constraints map[string]any) (*PlanResult, error) {
	brief = strings.TrimSpace(brief)
	det := e.classifier.Classify(brief)
	sel := e.selector.Select(det.Domain, det.Subdomain, det.Lenses)

	rec := pyramid.NewRecord(brief, audience, constraints)
	rec.Classification = det
	rec.TemplateSource = sel.Source
	rec.SelectionWarnings = sel.Warnings
	rec.Reasons = e.selector.NewReasons(sel.Titles)
	rec.LogicalOrder = logicalOrder(det.ProblemType, rec)
	rec.GoverningThought = governingThought(len(rec.Reasons))
	rec.SCQA = pyramid.SCQA{
		Situation:    situation(det.Domain, brief),
		Complication: det.ProblemType.Complication,
		Question:     brief,
		Answer:       rec.GoverningThought,
	}
	rec.EvidenceTasks = evidence.BuildTasks(e.classifier, det, rec.Reasons)

	id, err := e.store.Create(rec)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	for _, w := range sel.Warnings {
		e.logger.Warn("template adjusted", zap.String("run_id", id), zap.String("warning", w))
	}
	e.logger.Info("run planned",
		zap.String("run_id", id),
		zap.String("domain", string(det.Domain)),
		zap.String("template_source", sel.Source),
		zap.Int("reasons", len(rec.Reasons)),
	)

	return &PlanResult{
		RunID:             id,
		Domain:            det.Domain,
		Subdomain:         det.Subdomain,
		Confidence:        det.Confidence,
		Interdisciplinary: det.Interdisciplinary,
		Lenses:            det.Lenses,
		ProblemType:       det.ProblemType.Name,
		TemplateSource:    sel.Source,
		Reasons:           rec.Reasons,
		SCQA:              rec.SCQA,
		GoverningThought:  rec.GoverningThought,
		LogicalOrder:      rec.LogicalOrder,
		EvidenceTasks:     len(rec.EvidenceTasks),
		Warnings:          sel.Warnings,
		Status:            rec.Status,
		NextStep:          pyramid.NextStep(rec.Status),
	}, nil
}

// logicalOrder maps the problem type to a key-line order. Tables with an
// unknown order fall back to structural and leave a diagnostic.
func logicalOrder(pt domain.ProblemType, rec *pyramid.Record) pyramid.LogicalOrder {
	o := pyramid.LogicalOrder(pt.LogicalOrder)
	if err := pyramid.ValidateLogicalOrder(o); err != nil {
		rec.Diagnostics = append(rec.Diagnostics, fmt.Sprintf("problem type %q: %v; using structural", pt.Name, err))
		return pyramid.OrderStructural
	}
	return o
}

func governingThought(reasons int) string {
	return fmt.Sprintf("A systematic approach addressing %d key dimensions can resolve this challenge", reasons)
}

func situation(d domain.Domain, brief string) string {
	if r := []rune(brief); len(r) > situationBriefLen {
		brief = string(r[:situationBriefLen])
	}
	return fmt.Sprintf("%s context regarding: %s", d.Title(), brief)
}
