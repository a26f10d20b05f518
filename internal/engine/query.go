package engine

import (
	"go.uber.org/zap"

	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/pyramid"
)

// ValidateMECE re-checks the run's categories against its brief and keeps
// the report on the record. It does not change the run's status.
func (e *Engine) ValidateMECE(id string) (*mece.Report, error) {
	rec, err := e.store.Update(id, func(rec *pyramid.Record) error {
		report := e.validator.Validate(rec.Titles(), rec.Brief)
		rec.MECE = &report
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec.MECE, nil
}

// StatusResult describes where a run is in the pipeline.
type StatusResult struct {
	pyramid.RunSummary
	Titles         []string `json:"titles"`
	IsMECE         *bool    `json:"is_mece,omitempty"`
	CritiqueScore  *float64 `json:"critique_score,omitempty"`
	CritiquePassed *bool    `json:"critique_passed,omitempty"`
	Diagnostics    []string `json:"diagnostics,omitempty"`
	NextStep       string   `json:"next_step,omitempty"`
}

// Status reports the run's progress.
func (e *Engine) Status(id string) (*StatusResult, error) {
	rec, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	res := &StatusResult{
		RunSummary:  rec.Summary(),
		Titles:      rec.Titles(),
		Diagnostics: rec.Diagnostics,
		NextStep:    pyramid.NextStep(rec.Status),
	}
	if rec.MECE != nil {
		res.IsMECE = &rec.MECE.IsMECE
	}
	if rec.Critique != nil {
		res.CritiqueScore = &rec.Critique.OverallScore
		res.CritiquePassed = &rec.Critique.Passed
	}
	return res, nil
}

// Get returns a copy of the full record.
func (e *Engine) Get(id string) (*pyramid.Record, error) {
	return e.store.Get(id)
}

// List returns live runs, newest first.
func (e *Engine) List() []pyramid.RunSummary {
	return e.store.List()
}

// Discard drops a run from the store before its TTL expires. Archived
// deliverables are kept.
func (e *Engine) Discard(id string) error {
	if !e.store.Delete(id) {
		return ErrRunNotFound
	}
	e.logger.Info("run discarded", zap.String("run_id", id))
	return nil
}
