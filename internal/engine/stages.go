package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/minto/internal/archive"
	"github.com/HendryAvila/minto/internal/evidence"
	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/pyramid"
	"github.com/HendryAvila/minto/internal/templates"
)

// --- Evidence ---

// EvidenceResult is what RunEvidence returns.
type EvidenceResult struct {
	RunID            string                            `json:"run_id"`
	Stage            string                            `json:"stage"`
	Mode             string                            `json:"mode"`
	EvidenceByReason map[string][]pyramid.EvidenceItem `json:"evidence_by_reason"`
	Summary          []pyramid.ReasonSummary           `json:"summary"`
	Gathered         int                               `json:"gathered"`
	TotalEvidence    int                               `json:"total_evidence"`
	Queries          int                               `json:"queries"`
	Degraded         int                               `json:"degraded"`
	Diagnostics      []string                          `json:"diagnostics,omitempty"`
	Status           pyramid.Status                    `json:"status"`
	NextStep         string                            `json:"next_step"`
}

// RunEvidence gathers evidence for every reason ("all" or empty stage) or
// for one reason id. Searches run under the run's lock.
func (e *Engine) RunEvidence(ctx context.Context, id, stage string) (*EvidenceResult, error) {
	if stage == "" {
		stage = "all"
	}
	mode := e.cfg.Evidence.Mode

	var out *evidence.Outcome
	rec, err := e.store.Update(id, func(rec *pyramid.Record) error {
		if err := pyramid.CanEnter(rec, pyramid.StageEvidence); err != nil {
			return err
		}
		if stage != "all" {
			if _, ok := rec.Reason(stage); !ok {
				return fmt.Errorf("%w: %s", ErrUnknownReason, stage)
			}
		}
		var err error
		out, err = e.gatherer.Gather(ctx, evidence.SelectTasks(rec.EvidenceTasks, stage))
		if err != nil {
			return err
		}
		evidence.Merge(rec, out, mode)
		return pyramid.Complete(rec, pyramid.StageEvidence)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("evidence stage complete",
		zap.String("run_id", id),
		zap.String("stage", stage),
		zap.Int("gathered", out.Total()),
		zap.Int("degraded", out.Degraded),
	)
	return &EvidenceResult{
		RunID:            id,
		Stage:            stage,
		Mode:             mode,
		EvidenceByReason: rec.Evidence,
		Summary:          rec.EvidenceSummary,
		Gathered:         out.Total(),
		TotalEvidence:    rec.EvidenceCount(),
		Queries:          out.Queries,
		Degraded:         out.Degraded,
		Diagnostics:      out.Diagnostics,
		Status:           rec.Status,
		NextStep:         pyramid.NextStep(rec.Status),
	}, nil
}

// --- Synthesis ---

// SynthesisResult is what Synthesize returns.
type SynthesisResult struct {
	RunID    string          `json:"run_id"`
	Format   string          `json:"format"`
	Markdown string          `json:"markdown,omitempty"`
	JSON     json.RawMessage `json:"json,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
	Status   pyramid.Status  `json:"status"`
	NextStep string          `json:"next_step"`
}

// Synthesize renders the run as markdown, a JSON tree, or both. An empty
// or unknown format is coerced to markdown.
func (e *Engine) Synthesize(id, format string) (*SynthesisResult, error) {
	format, warnings := coerceFormat(format)

	rec, err := e.store.Update(id, func(rec *pyramid.Record) error {
		if err := pyramid.Complete(rec, pyramid.StageSynthesize); err != nil {
			return err
		}
		report := e.validator.Validate(rec.Titles(), rec.Brief)
		rec.MECE = &report
		d, err := e.render(rec, format)
		if err != nil {
			return err
		}
		rec.Deliverable = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("run synthesized", zap.String("run_id", id), zap.String("format", format))
	return &SynthesisResult{
		RunID:    id,
		Format:   format,
		Markdown: rec.Deliverable.Markdown,
		JSON:     rec.Deliverable.JSON,
		Warnings: warnings,
		Status:   rec.Status,
		NextStep: pyramid.NextStep(rec.Status),
	}, nil
}

func coerceFormat(format string) (string, []string) {
	if format == "" {
		return pyramid.FormatMarkdown, nil
	}
	if err := pyramid.ValidateFormat(format); err != nil {
		return pyramid.FormatMarkdown, []string{err.Error() + "; using markdown"}
	}
	return format, nil
}

// render builds the deliverable for the record's current state.
func (e *Engine) render(rec *pyramid.Record, format string) (*pyramid.Deliverable, error) {
	now := timeNow().UTC()
	doc := templates.BuildDocument(rec, e.cfg.Evidence.TopPerReason, now)
	d := &pyramid.Deliverable{Format: format, GeneratedAt: now}
	if format == pyramid.FormatMarkdown || format == pyramid.FormatBoth {
		md, err := e.renderer.Markdown(doc)
		if err != nil {
			return nil, fmt.Errorf("rendering markdown: %w", err)
		}
		d.Markdown = md
	}
	if format == pyramid.FormatJSON || format == pyramid.FormatBoth {
		raw, err := templates.JSON(doc)
		if err != nil {
			return nil, fmt.Errorf("rendering json: %w", err)
		}
		d.JSON = raw
	}
	return d, nil
}

// --- Critique ---

// Critique scores the synthesized run and stores the result together with
// a fresh MECE report.
func (e *Engine) Critique(id string) (*pyramid.CritiqueResult, error) {
	rec, err := e.store.Update(id, func(rec *pyramid.Record) error {
		if err := pyramid.CanEnter(rec, pyramid.StageCritique); err != nil {
			return err
		}
		res, report := e.critic.Critique(rec)
		rec.Critique = res
		rec.MECE = report
		return pyramid.Complete(rec, pyramid.StageCritique)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("run critiqued",
		zap.String("run_id", id),
		zap.Float64("overall", rec.Critique.OverallScore),
		zap.Bool("passed", rec.Critique.Passed),
	)
	return rec.Critique, nil
}

// --- Finalize ---

// FinalizeResult is the exported deliverable.
type FinalizeResult struct {
	RunID     string          `json:"run_id"`
	Format    string          `json:"format"`
	Markdown  string          `json:"markdown,omitempty"`
	JSON      json.RawMessage `json:"json,omitempty"`
	Score     float64         `json:"overall_score"`
	Passed    bool            `json:"passed"`
	Forced    bool            `json:"forced,omitempty"`
	Archived  bool            `json:"archived"`
	ArchiveID int64           `json:"archive_id,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	Status    pyramid.Status  `json:"status"`
}

// Finalize exports the deliverable of a critiqued run. Unless force is set
// the latest critique must have passed. Archiving is best effort.
func (e *Engine) Finalize(ctx context.Context, id, format string, force bool) (*FinalizeResult, error) {
	format, warnings := coerceFormat(format)

	forced := false
	rec, err := e.store.Update(id, func(rec *pyramid.Record) error {
		if err := pyramid.CanEnter(rec, pyramid.StageFinalize); err != nil {
			return err
		}
		if err := pyramid.CheckGate(rec); err != nil {
			if !force {
				return err
			}
			forced = true
			rec.Diagnostics = append(rec.Diagnostics, "finalized with force: "+err.Error())
		}
		if err := pyramid.Complete(rec, pyramid.StageFinalize); err != nil {
			return err
		}
		d, err := e.render(rec, format)
		if err != nil {
			return err
		}
		rec.Deliverable = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &FinalizeResult{
		RunID:    id,
		Format:   format,
		Markdown: rec.Deliverable.Markdown,
		JSON:     rec.Deliverable.JSON,
		Forced:   forced,
		Warnings: warnings,
		Status:   rec.Status,
	}
	if rec.Critique != nil {
		res.Score = rec.Critique.OverallScore
		res.Passed = rec.Critique.Passed
	}

	if e.archive != nil {
		archiveID, err := e.archive.Save(ctx, archiveEntry(rec, res))
		if err != nil {
			e.logger.Warn("archiving deliverable failed", zap.String("run_id", id), zap.Error(err))
			res.Warnings = append(res.Warnings, "deliverable not archived: "+err.Error())
		} else {
			res.Archived = true
			res.ArchiveID = archiveID
		}
	}

	e.logger.Info("run finalized",
		zap.String("run_id", id),
		zap.Bool("forced", forced),
		zap.Bool("archived", res.Archived),
	)
	return res, nil
}

func archiveEntry(rec *pyramid.Record, res *FinalizeResult) archive.Entry {
	content := res.Markdown
	if content == "" {
		content = string(res.JSON)
	}
	title := "Minto Pyramid Analysis"
	if rec.Brief != "" {
		title += ": " + rec.Brief
	}
	return archive.Entry{
		RunID:   rec.ID,
		Title:   title,
		Brief:   rec.Brief,
		Domain:  string(rec.Domain()),
		Format:  res.Format,
		Content: content,
		Score:   res.Score,
		Passed:  res.Passed,
		Forced:  res.Forced,
	}
}

// --- Revise ---

// ReviseResult is what Revise returns.
type ReviseResult struct {
	RunID         string         `json:"run_id"`
	Reasons       []mece.Reason  `json:"reasons"`
	MECE          *mece.Report   `json:"mece_validation"`
	EvidenceTasks int            `json:"evidence_tasks"`
	Warnings      []string       `json:"warnings,omitempty"`
	Status        pyramid.Status `json:"status"`
	NextStep      string         `json:"next_step"`
}

// Revise replaces the key line with new titles and sends the run back to
// planned. Evidence, critique and deliverable are discarded.
func (e *Engine) Revise(id string, titles []string) (*ReviseResult, error) {
	var warnings []string
	rec, err := e.store.Update(id, func(rec *pyramid.Record) error {
		if err := pyramid.Complete(rec, pyramid.StageRevise); err != nil {
			return err
		}
		var clamped []string
		clamped, warnings = e.selector.Clamp(titles)
		rec.Reasons = e.selector.NewReasons(clamped)
		rec.TemplateSource = "revised"
		rec.SelectionWarnings = warnings
		rec.GoverningThought = governingThought(len(rec.Reasons))
		rec.SCQA.Answer = rec.GoverningThought
		rec.EvidenceTasks = evidence.BuildTasks(e.classifier, rec.Classification, rec.Reasons)
		rec.Evidence = make(map[string][]pyramid.EvidenceItem)
		rec.EvidenceSummary = nil
		rec.Critique = nil
		rec.Deliverable = nil
		report := e.validator.Validate(clamped, rec.Brief)
		rec.MECE = &report
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("run revised", zap.String("run_id", id), zap.Int("reasons", len(rec.Reasons)))
	return &ReviseResult{
		RunID:         id,
		Reasons:       rec.Reasons,
		MECE:          rec.MECE,
		EvidenceTasks: len(rec.EvidenceTasks),
		Warnings:      warnings,
		Status:        rec.Status,
		NextStep:      pyramid.NextStep(rec.Status),
	}, nil
}
