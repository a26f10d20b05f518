// Package domain routes a free-text brief to a knowledge domain.
//
// Classification is lexical: each domain scores one point per keyword that
// appears as a case-insensitive substring of the brief. The resulting
// confidence is a heuristic score, not a calibrated probability.
package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/minto/internal/taxonomy"
)

// --- Domain enum ---

// Domain is a closed set of knowledge areas.
type Domain string

const (
	Technical         Domain = "technical"
	Business          Domain = "business"
	Scientific        Domain = "scientific"
	Medical           Domain = "medical"
	Legal             Domain = "legal"
	Social            Domain = "social"
	Interdisciplinary Domain = "interdisciplinary"
	General           Domain = "general"
)

var validDomains = map[Domain]bool{
	Technical:         true,
	Business:          true,
	Scientific:        true,
	Medical:           true,
	Legal:             true,
	Social:            true,
	Interdisciplinary: true,
	General:           true,
}

// ValidateDomain returns an error if d is not in the closed set.
func ValidateDomain(d Domain) error {
	if !validDomains[d] {
		return fmt.Errorf("invalid domain %q: must be one of: technical, business, scientific, medical, legal, social, interdisciplinary, general", d)
	}
	return nil
}

// Title returns the display form of the domain ("technical" → "Technical").
func (d Domain) Title() string {
	if d == "" {
		return ""
	}
	return strings.ToUpper(string(d[:1])) + string(d[1:])
}

// --- Search type enum ---

// SearchType selects which family of sources evidence queries target.
type SearchType string

const (
	SearchAcademic SearchType = "academic"
	SearchBusiness SearchType = "business"
	SearchMedical  SearchType = "medical"
	SearchGeneral  SearchType = "general"
)

// interdisciplinaryScore is the per-domain score at which a domain counts
// toward the interdisciplinary flag.
const interdisciplinaryScore = 3

// Detection is the classifier's output for one brief.
type Detection struct {
	Domain            Domain         `json:"domain"`
	Subdomain         string         `json:"subdomain,omitempty"`
	Confidence        float64        `json:"confidence"`
	Interdisciplinary bool           `json:"is_interdisciplinary"`
	PrimaryScored     Domain         `json:"primary_scored,omitempty"`
	SecondaryDomains  []Domain       `json:"secondary_domains,omitempty"`
	Scores            map[Domain]int `json:"domain_scores,omitempty"`
	KeywordsFound     []string       `json:"keywords_found,omitempty"`
	Lenses            []Lens         `json:"lenses"`
	ProblemType       ProblemType    `json:"problem_type"`
}

// Classifier scores briefs against the taxonomy tables.
type Classifier struct {
	tables *taxonomy.Tables
}

// NewClassifier creates a Classifier over the given tables.
func NewClassifier(tables *taxonomy.Tables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify detects the domain, subdomain, lenses and problem type of a brief.
//
// Ties between equally scored domains go to the alphabetically first name.
// When two or more domains reach the interdisciplinary score the result is
// Interdisciplinary and the top scorer is kept in PrimaryScored.
func (c *Classifier) Classify(brief string) Detection {
	lower := strings.ToLower(brief)

	type scored struct {
		name    Domain
		score   int
		matches []string
	}
	var all []scored
	for _, name := range c.tables.DomainNames() {
		s := scored{name: Domain(name)}
		for _, kw := range c.tables.DomainKeywords(name) {
			if strings.Contains(lower, kw) {
				s.score++
				s.matches = append(s.matches, kw)
			}
		}
		all = append(all, s)
	}
	// Stable sort keeps alphabetical order among equal scores.
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	det := Detection{
		Domain: General,
		Scores: make(map[Domain]int),
	}

	high := 0
	for _, s := range all {
		if s.score > 0 {
			det.Scores[s.name] = s.score
		}
		if s.score >= interdisciplinaryScore {
			high++
		}
	}

	if len(all) > 0 && all[0].score > 0 {
		top := all[0]
		det.Domain = top.name
		det.PrimaryScored = top.name
		det.KeywordsFound = top.matches
		det.Confidence = min(float64(top.score)/10.0, 1.0)
		for _, s := range all[1:] {
			if s.score == 0 || len(det.SecondaryDomains) == 2 {
				break
			}
			det.SecondaryDomains = append(det.SecondaryDomains, s.name)
		}
	}

	if high > 1 {
		det.Interdisciplinary = true
		det.Domain = Interdisciplinary
	}

	if det.Domain == Technical {
		det.Subdomain = c.Subdomain(lower)
	}
	det.Lenses = c.Lenses(lower, det.Domain)
	det.ProblemType = c.ProblemType(lower)

	return det
}

// Subdomain picks the best-matching technical subdomain, falling back to
// the configured default when nothing matches.
func (c *Classifier) Subdomain(brief string) string {
	lower := strings.ToLower(brief)
	best, bestScore := "", 0
	for _, name := range c.tables.SubdomainNames() {
		score := 0
		for _, kw := range c.tables.Subdomains[name] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if bestScore == 0 {
		return c.tables.DefaultSubdomain
	}
	return best
}

// SearchType maps a domain to the source family its evidence should come from.
func (c *Classifier) SearchType(d Domain) SearchType {
	if st, ok := c.tables.SearchTypes[string(d)]; ok {
		return SearchType(st)
	}
	return SearchGeneral
}

// SearchSites returns the allow-listed sites for a domain, preferring the
// subdomain-specific list when one exists.
func (c *Classifier) SearchSites(d Domain, subdomain string) []string {
	sites := c.tables.SearchSites[string(d)]
	if sites == nil {
		return nil
	}
	if subdomain != "" {
		if s, ok := sites[subdomain]; ok {
			return s
		}
	}
	return sites["default"]
}

// IsAcademicSource reports whether url belongs to a known academic publisher.
func (c *Classifier) IsAcademicSource(url string) bool {
	return containsAny(strings.ToLower(url), c.tables.AcademicSources)
}

// IsBusinessSource reports whether url belongs to a known business publisher.
func (c *Classifier) IsBusinessSource(url string) bool {
	return containsAny(strings.ToLower(url), c.tables.BusinessSources)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
