package critique

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/pyramid"
)

const (
	minElementLen    = 20
	minGoverningLen  = 30
	collisionPenalty = 0.2
	maxListed        = 3
)

func scoreSCQA(rec *pyramid.Record) pyramid.Aspect {
	elements := []struct{ name, text string }{
		{"situation", rec.SCQA.Situation},
		{"complication", rec.SCQA.Complication},
		{"question", rec.SCQA.Question},
		{"answer", rec.SCQA.Answer},
	}
	score := 1.0
	var findings, missing []string
	for _, e := range elements {
		if strings.TrimSpace(e.text) == "" {
			missing = append(missing, e.name)
		}
	}
	if len(missing) > 0 {
		findings = append(findings, "Missing SCQA elements: "+strings.Join(missing, ", "))
		score -= 0.25 * float64(len(missing))
	} else {
		findings = append(findings, "All SCQA elements present")
	}
	for _, e := range elements {
		if t := strings.TrimSpace(e.text); t != "" && len(t) < minElementLen {
			findings = append(findings, fmt.Sprintf("%s is too brief to be substantive", capitalize(e.name)))
			score -= 0.1
		}
	}
	return pyramid.Aspect{Name: AspectSCQA, Score: score, Findings: findings}
}

func scoreGoverningThought(rec *pyramid.Record) pyramid.Aspect {
	score := 1.0
	var findings []string
	gt := strings.TrimSpace(rec.GoverningThought)
	switch {
	case gt == "":
		findings = append(findings, "No governing thought defined")
		score = 0
	case len(gt) < minGoverningLen:
		findings = append(findings, "Governing thought is too brief")
		score -= 0.3
	default:
		findings = append(findings, "Governing thought is substantive")
	}
	if len(rec.Reasons) == 0 {
		findings = append(findings, "No reasons defined to summarize")
		score -= 0.5
	} else {
		findings = append(findings, fmt.Sprintf("%d reasons support the governing thought", len(rec.Reasons)))
	}
	return pyramid.Aspect{Name: AspectGoverningThought, Score: score, Findings: findings}
}

// scoreMECE grades the four checks; exhaustiveness counts by coverage ratio.
func scoreMECE(r mece.Report) pyramid.Aspect {
	score := r.Coverage
	var findings []string
	if r.MutuallyExclusive {
		score++
	} else {
		findings = append(findings, fmt.Sprintf("Overlaps detected: %d pairs", len(r.Overlaps)))
		for i, o := range r.Overlaps {
			if i == maxListed {
				break
			}
			findings = append(findings, fmt.Sprintf("%s / %s share %s", o.CategoryA, o.CategoryB, strings.Join(o.SharedWords, ", ")))
		}
	}
	if !r.CollectivelyExhaustive {
		listed := r.Gaps
		if len(listed) > maxListed {
			listed = listed[:maxListed]
		}
		findings = append(findings, fmt.Sprintf("Gaps detected: %d missing concepts (%s)", len(r.Gaps), strings.Join(listed, ", ")))
	}
	if r.CognitiveLoadOK {
		score++
	} else {
		findings = append(findings, r.CognitiveLoadMessage)
	}
	if r.SameKind {
		score++
	} else {
		findings = append(findings, r.KindIssues...)
	}
	if r.IsMECE {
		findings = append(findings, "MECE structure valid")
	}
	return pyramid.Aspect{Name: AspectMECE, Score: score / 4, Findings: findings}
}

func scoreVerticalFlow(rec *pyramid.Record) pyramid.Aspect {
	score := 1.0
	var findings []string
	hasAnswer := strings.TrimSpace(rec.GoverningThought) != ""
	if rec.SCQA.Question != "" && hasAnswer {
		findings = append(findings, "Question to answer flow established")
	} else {
		findings = append(findings, "Question to answer flow incomplete")
		score -= 0.3
	}
	if hasAnswer && len(rec.Reasons) > 0 {
		findings = append(findings, fmt.Sprintf("Answer supported by %d reasons", len(rec.Reasons)))
	} else {
		findings = append(findings, "Answer to reasons flow incomplete")
		score -= 0.3
	}
	if len(rec.Reasons) > 0 {
		if rec.EvidenceCount() > 0 {
			findings = append(findings, "Reasons supported by evidence")
		} else {
			findings = append(findings, "Evidence not yet collected for reasons")
			score -= 0.2
		}
	}
	return pyramid.Aspect{Name: AspectVerticalFlow, Score: score, Findings: findings}
}

func scoreHorizontalLogic(rec *pyramid.Record) pyramid.Aspect {
	if len(rec.Reasons) < 2 {
		return pyramid.Aspect{
			Name:     AspectHorizontalLogic,
			Score:    0.8,
			Findings: []string{"Cannot assess horizontal logic with fewer than 2 reasons"},
		}
	}
	return pyramid.Aspect{
		Name:     AspectHorizontalLogic,
		Score:    1,
		Findings: []string{fmt.Sprintf("%d reasons form a logical grouping", len(rec.Reasons))},
	}
}

func scoreLogicalOrdering(rec *pyramid.Record) pyramid.Aspect {
	if err := pyramid.ValidateLogicalOrder(rec.LogicalOrder); err != nil {
		return pyramid.Aspect{
			Name:     AspectLogicalOrdering,
			Score:    0.7,
			Findings: []string{"Logical order not specified"},
		}
	}
	findings := []string{fmt.Sprintf("Logical order: %s", rec.LogicalOrder)}
	if len(rec.Reasons) >= 2 {
		findings = append(findings, fmt.Sprintf("%d reasons ordered %s", len(rec.Reasons), rec.LogicalOrder))
	}
	return pyramid.Aspect{Name: AspectLogicalOrdering, Score: 1, Findings: findings}
}

// scoreEvidence averages, over reasons, min(count/target, 1) × mean confidence.
func scoreEvidence(rec *pyramid.Record, target int) pyramid.Aspect {
	if len(rec.Reasons) == 0 {
		return pyramid.Aspect{Name: AspectEvidence, Score: 0, Findings: []string{"No reasons to support"}}
	}
	if rec.EvidenceCount() == 0 {
		return pyramid.Aspect{Name: AspectEvidence, Score: 0, Findings: []string{"No evidence collected"}}
	}
	var findings []string
	total := 0.0
	for _, r := range rec.Reasons {
		items := rec.Evidence[r.ID]
		if len(items) < target {
			findings = append(findings, fmt.Sprintf("%s has %d evidence items (target %d)", r.Title, len(items), target))
		}
		if len(items) == 0 {
			continue
		}
		conf := 0.0
		for _, it := range items {
			conf += it.Confidence
		}
		conf /= float64(len(items))
		total += min(float64(len(items))/float64(target), 1) * conf
	}
	if len(findings) == 0 {
		findings = append(findings, fmt.Sprintf("Every reason has at least %d evidence items", target))
	}
	return pyramid.Aspect{Name: AspectEvidence, Score: total / float64(len(rec.Reasons)), Findings: findings}
}

// scoreConsistency counts claims whose polarity words collide with the
// opposite word in their own evidence.
func (c *Critic) scoreConsistency(rec *pyramid.Record) pyramid.Aspect {
	var findings []string
	collisions := 0
	for _, r := range rec.Reasons {
		claim := wordSet(r.Claim + " " + r.Title)
		var evidenceText strings.Builder
		for _, it := range rec.Evidence[r.ID] {
			evidenceText.WriteString(it.Content)
			evidenceText.WriteByte(' ')
		}
		ev := wordSet(evidenceText.String())
		for _, pair := range c.polarity {
			a, b := pair[0], pair[1]
			if (claim[a] && ev[b]) || (claim[b] && ev[a]) {
				collisions++
				findings = append(findings, fmt.Sprintf("%s: claim and evidence disagree (%s vs %s)", r.Title, a, b))
			}
		}
	}
	if collisions == 0 {
		findings = append(findings, "No contradictions between claims and evidence")
	}
	return pyramid.Aspect{Name: AspectConsistency, Score: 1 - collisionPenalty*float64(collisions), Findings: findings}
}

func scoreCognitiveLoad(r mece.Report) pyramid.Aspect {
	n := r.CategoryCount
	score := 1.0
	switch {
	case n == 0:
		score = 0
	case n < r.Bounds.Min:
		score = 1 - 0.25*float64(r.Bounds.Min-n)
	case n > r.Bounds.Max:
		score = 1 - 0.2*float64(n-r.Bounds.Max)
	}
	return pyramid.Aspect{Name: AspectCognitiveLoad, Score: score, Findings: []string{r.CognitiveLoadMessage}}
}

// scoreSemanticRelevance measures how much of the brief's vocabulary the
// evidence repeats, weighting items from the domain's preferred sources.
func (c *Critic) scoreSemanticRelevance(rec *pyramid.Record) pyramid.Aspect {
	concepts := c.validator.KeyConcepts(rec.Brief)
	if len(concepts) == 0 || rec.EvidenceCount() == 0 {
		return pyramid.Aspect{Name: AspectSemanticRelevance, Score: 0, Findings: []string{"Nothing to compare: brief or evidence is empty"}}
	}
	searchType := c.classifier.SearchType(rec.Domain())
	total, n := 0.0, 0
	preferred := 0
	for _, r := range rec.Reasons {
		for _, it := range rec.Evidence[r.ID] {
			ev := wordSet(it.Content)
			hits := 0
			for _, concept := range concepts {
				if ev[concept] {
					hits++
				}
			}
			weight := 0.8
			if c.preferredSource(searchType, it.URL) {
				weight = 1
				preferred++
			}
			total += weight * float64(hits) / float64(len(concepts))
			n++
		}
	}
	score := total / float64(n)
	findings := []string{
		fmt.Sprintf("Evidence repeats %.0f%% of the brief's key concepts on average", 100*score),
		fmt.Sprintf("%d of %d items come from preferred sources", preferred, n),
	}
	return pyramid.Aspect{Name: AspectSemanticRelevance, Score: score, Findings: findings}
}

func (c *Critic) preferredSource(st domain.SearchType, url string) bool {
	switch st {
	case domain.SearchAcademic, domain.SearchMedical:
		return c.classifier.IsAcademicSource(url)
	case domain.SearchBusiness:
		return c.classifier.IsBusinessSource(url)
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
