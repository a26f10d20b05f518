// Package evidence plans and runs the per-reason evidence searches.
//
// Every reason gets two queries: a primary query on the title and a
// current-state query on recent developments. Queries fan out
// concurrently against a Source. A query that fails or exceeds its
// timeout falls back to the deterministic mock and is marked degraded.
package evidence

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/pyramid"
)

// BuildTasks plans the evidence queries for each reason. Site hints are
// attached only for academic and medical search types.
func BuildTasks(c *domain.Classifier, det domain.Detection, reasons []mece.Reason) []pyramid.EvidenceTask {
	searchType := c.SearchType(det.Domain)
	var sites []string
	if searchType == domain.SearchAcademic || searchType == domain.SearchMedical {
		sites = c.SearchSites(det.Domain, det.Subdomain)
	}

	year := timeNow().Year()
	tasks := make([]pyramid.EvidenceTask, 0, len(reasons)*2)
	for _, r := range reasons {
		tasks = append(tasks,
			pyramid.EvidenceTask{
				ReasonID:   r.ID,
				Query:      strings.TrimSpace(r.Title + " " + det.Subdomain),
				SearchType: searchType,
				Purpose:    pyramid.PurposePrimary,
				Sites:      clone(sites),
			},
			pyramid.EvidenceTask{
				ReasonID:   r.ID,
				Query:      fmt.Sprintf("%s recent advances %d", r.Title, year),
				SearchType: searchType,
				Purpose:    pyramid.PurposeCurrent,
				Sites:      clone(sites),
			},
		)
	}
	return tasks
}

// SiteHint renders allow-listed sites as search operators, e.g.
// "(site:arxiv.org OR site:nature.com)".
func SiteHint(sites []string) string {
	if len(sites) == 0 {
		return ""
	}
	terms := make([]string, len(sites))
	for i, s := range sites {
		terms[i] = "site:" + s
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
