package pyramid

import (
	"maps"
	"slices"

	"github.com/HendryAvila/minto/internal/domain"
)

// Clone returns a copy that shares no slices or maps with r. Nested
// reports are shared because they are replaced, never mutated.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Constraints = maps.Clone(r.Constraints)
	c.Classification = cloneDetection(r.Classification)
	c.SelectionWarnings = slices.Clone(r.SelectionWarnings)
	c.Reasons = slices.Clone(r.Reasons)
	c.EvidenceTasks = make([]EvidenceTask, len(r.EvidenceTasks))
	for i, t := range r.EvidenceTasks {
		t.Sites = slices.Clone(t.Sites)
		c.EvidenceTasks[i] = t
	}
	c.Evidence = make(map[string][]EvidenceItem, len(r.Evidence))
	for id, items := range r.Evidence {
		c.Evidence[id] = slices.Clone(items)
	}
	c.EvidenceSummary = make([]ReasonSummary, len(r.EvidenceSummary))
	for i, s := range r.EvidenceSummary {
		s.Sources = slices.Clone(s.Sources)
		c.EvidenceSummary[i] = s
	}
	c.Diagnostics = slices.Clone(r.Diagnostics)
	return &c
}

func cloneDetection(d domain.Detection) domain.Detection {
	d.SecondaryDomains = slices.Clone(d.SecondaryDomains)
	d.Scores = maps.Clone(d.Scores)
	d.KeywordsFound = slices.Clone(d.KeywordsFound)
	d.Lenses = slices.Clone(d.Lenses)
	return d
}
