// Package mece selects supporting-category templates and checks a set of
// categories for mutual exclusivity and collective exhaustiveness.
//
// Every check here is lexical. Overlap and coverage are computed from word
// sets, so they catch shared vocabulary, not shared meaning.
package mece

import (
	"fmt"
	"strings"
	"unicode"
)

// CategoryType is the kind of thing a category title names.
type CategoryType string

const (
	TypeProcess   CategoryType = "process"
	TypeComponent CategoryType = "component"
	TypeProblem   CategoryType = "problem"
	TypeSolution  CategoryType = "solution"
	TypeAnalysis  CategoryType = "analysis"
	TypeGeneral   CategoryType = "general"
)

// Bounds is the inclusive range of categories per pyramid level.
type Bounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether n is within the bounds.
func (b Bounds) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%d,%d]", b.Min, b.Max)
}

// Reason is one supporting category of the governing thought.
type Reason struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Claim        string       `json:"claim"`
	CategoryType CategoryType `json:"category_type"`
	TasksCount   int          `json:"tasks_count"`
}

// tasksPerReason is the number of evidence queries planned for each reason.
const tasksPerReason = 2

// ReasonID returns the identifier for the i-th reason (zero based).
func ReasonID(i int) string {
	return fmt.Sprintf("reason_%d", i+1)
}

// NewReasons wraps titles into reasons with ids reason_1..reason_n.
func (s *Selector) NewReasons(titles []string) []Reason {
	reasons := make([]Reason, len(titles))
	for i, title := range titles {
		reasons[i] = Reason{
			ID:           ReasonID(i),
			Title:        title,
			Claim:        fmt.Sprintf("Analysis of %s reveals key insights", strings.ToLower(title)),
			CategoryType: s.DetectCategoryType(title),
			TasksCount:   tasksPerReason,
		}
	}
	return reasons
}

// DetectCategoryType returns the first category type whose keyword starts
// one of the title's words, or TypeGeneral.
func (s *Selector) DetectCategoryType(title string) CategoryType {
	return detectCategoryType(s.tables.CategoryTypes, title)
}

// tokenize lowercases s and splits it on anything that is not a letter or digit.
// Tokenize splits s into lowercase runs of Unicode letters and digits.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func wordSet(s string, stop map[string]bool) map[string]bool {
	set := make(map[string]bool)
	for _, w := range Tokenize(s) {
		if !stop[w] {
			set[w] = true
		}
	}
	return set
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
