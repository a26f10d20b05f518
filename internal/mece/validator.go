package mece

import (
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/minto/internal/taxonomy"
)

const (
	// overlapShared is the shared-word count at which two titles overlap.
	overlapShared = 2
	// overlapHigh is the shared-word count at which an overlap is severe.
	overlapHigh = 3
	// maxKeyConcepts caps the concepts extracted from a brief.
	maxKeyConcepts = 8
	// minConceptLen is the exclusive lower bound on concept word length.
	minConceptLen = 3
	// stemPrefix is the shared prefix length at which two words count as
	// the same concept ("supply" / "supplier") when stem coverage is on.
	stemPrefix = 5
)

// Severity grades an overlap between two categories.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Overlap records shared vocabulary between two category titles.
type Overlap struct {
	CategoryA   string   `json:"category_1"`
	CategoryB   string   `json:"category_2"`
	SharedWords []string `json:"shared_words"`
	Severity    Severity `json:"severity"`
}

// Report is the result of a MECE validation.
type Report struct {
	IsMECE                 bool           `json:"is_mece"`
	MutuallyExclusive      bool           `json:"mutually_exclusive"`
	CollectivelyExhaustive bool           `json:"collectively_exhaustive"`
	CognitiveLoadOK        bool           `json:"cognitive_load_ok"`
	SameKind               bool           `json:"same_kind"`
	Overlaps               []Overlap      `json:"overlaps"`
	Gaps                   []string       `json:"gaps"`
	KeyConcepts            []string       `json:"key_concepts"`
	Coverage               float64        `json:"coverage"`
	CategoryCount          int            `json:"category_count"`
	Bounds                 Bounds         `json:"bounds"`
	CategoryTypes          []CategoryType `json:"category_types"`
	KindIssues             []string       `json:"kind_issues,omitempty"`
	CognitiveLoadMessage   string         `json:"cognitive_load_message"`
	Recommendations        []string       `json:"recommendations,omitempty"`
}

// Validator runs the four MECE checks.
type Validator struct {
	tables        *taxonomy.Tables
	bounds        Bounds
	titleStop     map[string]bool
	conceptStop   map[string]bool
	synonymsByKey map[string][]string
	stemCoverage  bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithStemCoverage lets a title word sharing a five-letter prefix with a
// concept cover it, on top of substring and synonym matches.
func WithStemCoverage(on bool) ValidatorOption {
	return func(v *Validator) { v.stemCoverage = on }
}

// NewValidator creates a Validator using the same bounds as the Selector.
// Coverage is a literal substring or synonym match unless an option widens it.
func NewValidator(tables *taxonomy.Tables, bounds Bounds, opts ...ValidatorOption) *Validator {
	v := &Validator{
		tables:        tables,
		bounds:        bounds,
		titleStop:     toSet(tables.Stopwords.Titles),
		conceptStop:   toSet(tables.Stopwords.Concepts),
		synonymsByKey: tables.Synonyms,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks titles against the brief. IsMECE is exactly the
// conjunction of the four checks.
func (v *Validator) Validate(titles []string, brief string) Report {
	r := Report{
		CategoryCount: len(titles),
		Bounds:        v.bounds,
		Overlaps:      []Overlap{},
		Gaps:          []string{},
	}

	r.Overlaps = v.overlaps(titles)
	r.MutuallyExclusive = len(r.Overlaps) == 0

	r.KeyConcepts = v.KeyConcepts(brief)
	covered := 0
	for _, concept := range r.KeyConcepts {
		if v.covers(titles, concept) {
			covered++
		} else {
			r.Gaps = append(r.Gaps, concept)
		}
	}
	r.CollectivelyExhaustive = len(r.Gaps) == 0
	r.Coverage = 1.0
	if len(r.KeyConcepts) > 0 {
		r.Coverage = float64(covered) / float64(len(r.KeyConcepts))
	}

	r.CognitiveLoadOK = v.bounds.Contains(len(titles))
	r.CognitiveLoadMessage = v.loadMessage(len(titles))

	r.SameKind = true
	seenTypes := make(map[CategoryType]bool)
	for _, t := range titles {
		ct := detectCategoryType(v.tables.CategoryTypes, t)
		r.CategoryTypes = append(r.CategoryTypes, ct)
		seenTypes[ct] = true
	}
	if len(seenTypes) > 1 {
		r.SameKind = false
		kinds := make([]string, 0, len(seenTypes))
		for ct := range seenTypes {
			kinds = append(kinds, string(ct))
		}
		sort.Strings(kinds)
		r.KindIssues = []string{fmt.Sprintf("Categories mix %d kinds: %s", len(kinds), strings.Join(kinds, ", "))}
	}

	r.IsMECE = r.MutuallyExclusive && r.CollectivelyExhaustive && r.CognitiveLoadOK && r.SameKind
	r.Recommendations = recommendations(r)
	return r
}

func (v *Validator) overlaps(titles []string) []Overlap {
	sets := make([]map[string]bool, len(titles))
	for i, t := range titles {
		sets[i] = wordSet(t, v.titleStop)
	}

	out := []Overlap{}
	for i := 0; i < len(titles); i++ {
		for j := i + 1; j < len(titles); j++ {
			var shared []string
			for w := range sets[i] {
				if sets[j][w] {
					shared = append(shared, w)
				}
			}
			if len(shared) < overlapShared {
				continue
			}
			sort.Strings(shared)
			sev := SeverityMedium
			if len(shared) >= overlapHigh {
				sev = SeverityHigh
			}
			out = append(out, Overlap{
				CategoryA:   titles[i],
				CategoryB:   titles[j],
				SharedWords: shared,
				Severity:    sev,
			})
		}
	}
	return out
}

// KeyConcepts extracts up to eight distinct significant words from the
// brief in order of first appearance.
func (v *Validator) KeyConcepts(brief string) []string {
	concepts := []string{}
	seen := make(map[string]bool)
	for _, w := range Tokenize(brief) {
		if len(w) <= minConceptLen || v.conceptStop[w] || seen[w] {
			continue
		}
		seen[w] = true
		concepts = append(concepts, w)
		if len(concepts) == maxKeyConcepts {
			break
		}
	}
	return concepts
}

// covers reports whether any title mentions the concept directly or
// through a synonym.
func (v *Validator) covers(titles []string, concept string) bool {
	terms := append([]string{concept}, v.synonymsByKey[concept]...)
	for _, title := range titles {
		lower := strings.ToLower(title)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				return true
			}
		}
		if !v.stemCoverage {
			continue
		}
		for _, w := range Tokenize(title) {
			if sharesStem(w, concept) {
				return true
			}
		}
	}
	return false
}

func sharesStem(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < stemPrefix || len(rb) < stemPrefix {
		return false
	}
	return string(ra[:stemPrefix]) == string(rb[:stemPrefix])
}

func (v *Validator) loadMessage(n int) string {
	switch {
	case n == 0:
		return "No categories provided"
	case n < v.bounds.Min:
		return fmt.Sprintf("Only %d categories: at least %d are needed for a meaningful grouping", n, v.bounds.Min)
	case n > v.bounds.Max:
		return fmt.Sprintf("%d categories exceed the %d a reader can hold at once", n, v.bounds.Max)
	default:
		return fmt.Sprintf("%d categories is within the %s range", n, v.bounds)
	}
}

func recommendations(r Report) []string {
	var recs []string
	if !r.MutuallyExclusive {
		recs = append(recs, fmt.Sprintf("Reword %d overlapping category pair(s) so each covers distinct ground", len(r.Overlaps)))
	}
	if !r.CollectivelyExhaustive {
		recs = append(recs, fmt.Sprintf("Cover the missing concepts: %s", strings.Join(r.Gaps, ", ")))
	}
	if !r.CognitiveLoadOK {
		recs = append(recs, fmt.Sprintf("Use between %d and %d categories", r.Bounds.Min, r.Bounds.Max))
	}
	if !r.SameKind {
		recs = append(recs, "Make every category the same kind of thing")
	}
	return recs
}
