// Package critique scores a pyramid against the Minto quality checklist.
//
// Each aspect yields a score in [0,1]. The overall score is the plain mean
// of the clamped aspect scores, and the gate passes only when the mean
// reaches the overall threshold and no aspect falls below the floor.
// Every check is a lexical heuristic, not a semantic judgement.
package critique

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/minto/internal/config"
	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/pyramid"
	"github.com/HendryAvila/minto/internal/taxonomy"
)

// Aspect names.
const (
	AspectSCQA              = "SCQA Completeness"
	AspectGoverningThought  = "Governing Thought Summary"
	AspectMECE              = "MECE Compliance"
	AspectVerticalFlow      = "Vertical Q&A Flow"
	AspectHorizontalLogic   = "Horizontal Logic"
	AspectLogicalOrdering   = "Logical Ordering"
	AspectEvidence          = "Evidence Sufficiency"
	AspectConsistency       = "Consistency"
	AspectCognitiveLoad     = "Cognitive Load"
	AspectSemanticRelevance = "Semantic Relevance"
)

// Options holds the gate thresholds.
type Options struct {
	OverallThreshold  float64
	AspectFloor       float64
	SemanticRelevance bool
	TargetPerReason   int
}

// OptionsFromConfig builds Options from the critique and evidence sections.
func OptionsFromConfig(c *config.Config) Options {
	return Options{
		OverallThreshold:  c.Critique.OverallThreshold,
		AspectFloor:       c.Critique.AspectFloor,
		SemanticRelevance: c.Critique.SemanticRelevance,
		TargetPerReason:   c.Evidence.TargetPerReason,
	}
}

// Critic runs the checklist.
type Critic struct {
	validator  *mece.Validator
	classifier *domain.Classifier
	polarity   [][]string
	opts       Options
}

// New creates a Critic. The validator must share the selector's bounds.
func New(tables *taxonomy.Tables, validator *mece.Validator, classifier *domain.Classifier, opts Options) *Critic {
	if opts.TargetPerReason <= 0 {
		opts.TargetPerReason = 2
	}
	return &Critic{
		validator:  validator,
		classifier: classifier,
		polarity:   tables.PolarityPairs,
		opts:       opts,
	}
}

// Critique scores rec. It also returns the fresh MECE report so callers
// can store it alongside the result.
func (c *Critic) Critique(rec *pyramid.Record) (*pyramid.CritiqueResult, *mece.Report) {
	report := c.validator.Validate(rec.Titles(), rec.Brief)

	aspects := []pyramid.Aspect{
		scoreSCQA(rec),
		scoreGoverningThought(rec),
		scoreMECE(report),
		scoreVerticalFlow(rec),
		scoreHorizontalLogic(rec),
		scoreLogicalOrdering(rec),
		scoreEvidence(rec, c.opts.TargetPerReason),
		c.scoreConsistency(rec),
		scoreCognitiveLoad(report),
	}
	if c.opts.SemanticRelevance {
		aspects = append(aspects, c.scoreSemanticRelevance(rec))
	}

	res := Aggregate(aspects, c.opts.OverallThreshold, c.opts.AspectFloor)
	res.CritiquedAt = timeNow().UTC()
	return res, &report
}

// Aggregate clamps each aspect, marks it against the floor, and computes
// the mean and the gate decision.
func Aggregate(aspects []pyramid.Aspect, overall, floor float64) *pyramid.CritiqueResult {
	res := &pyramid.CritiqueResult{
		Aspects:          make([]pyramid.Aspect, len(aspects)),
		OverallThreshold: overall,
		AspectFloor:      floor,
	}
	allAboveFloor := true
	sum := 0.0
	for i, a := range aspects {
		a.Score = clamp01(a.Score)
		a.Passed = a.Score >= floor
		if !a.Passed {
			allAboveFloor = false
		}
		if a.Findings == nil {
			a.Findings = []string{}
		}
		sum += a.Score
		res.Aspects[i] = a
	}
	if len(aspects) > 0 {
		res.OverallScore = sum / float64(len(aspects))
	}
	res.Passed = len(aspects) > 0 && res.OverallScore >= overall && allAboveFloor
	res.Summary = summarize(res)
	return res
}

func summarize(res *pyramid.CritiqueResult) string {
	if res.Passed {
		return fmt.Sprintf("Quality score %.2f: passed", res.OverallScore)
	}
	var weak []string
	for _, a := range res.Aspects {
		if !a.Passed {
			weak = append(weak, a.Name)
		}
	}
	if len(weak) == 0 {
		return fmt.Sprintf("Quality score %.2f: needs revision (below %.2f overall)", res.OverallScore, res.OverallThreshold)
	}
	return fmt.Sprintf("Quality score %.2f: needs revision (weak: %s)", res.OverallScore, strings.Join(weak, ", "))
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// wordSet tokenizes text the same way the MECE validator extracts concepts.
func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range mece.Tokenize(text) {
		set[w] = true
	}
	return set
}
