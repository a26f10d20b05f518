package mece

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/taxonomy"
)

// Template sources, in selection priority order.
const (
	SourceSubdomain = "domain_subdomain"
	SourceDomain    = "domain_default"
	SourceLens      = "lens"
	SourceFallback  = "fallback"
)

// Selection is the outcome of template selection.
type Selection struct {
	Titles   []string `json:"titles"`
	Source   string   `json:"source"`
	Lens     string   `json:"lens,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Selector picks category titles for a classified brief.
type Selector struct {
	tables *taxonomy.Tables
	bounds Bounds
}

// NewSelector creates a Selector that keeps every selection within bounds.
func NewSelector(tables *taxonomy.Tables, bounds Bounds) *Selector {
	return &Selector{tables: tables, bounds: bounds}
}

// CheckBounds returns an error when the fallback template has fewer
// distinct titles than b.Min, since Clamp could then not pad a short list.
func CheckBounds(tables *taxonomy.Tables, b Bounds) error {
	distinct := make(map[string]bool)
	for _, t := range tables.FallbackTemplate {
		if t = strings.TrimSpace(t); t != "" {
			distinct[strings.ToLower(t)] = true
		}
	}
	if b.Min > len(distinct) {
		return fmt.Errorf("min categories %d exceeds the %d fallback titles available for padding", b.Min, len(distinct))
	}
	return nil
}

// Bounds returns the category bounds the selector enforces.
func (s *Selector) Bounds() Bounds {
	return s.bounds
}

// Select picks titles by priority: domain+subdomain template, domain
// default, the first lens with a template, then the global fallback.
// The result is always clamped to the selector's bounds.
func (s *Selector) Select(d domain.Domain, subdomain string, lenses []domain.Lens) Selection {
	sel := s.pick(d, subdomain, lenses)
	titles, warnings := s.Clamp(sel.Titles)
	sel.Titles = titles
	sel.Warnings = append(sel.Warnings, warnings...)
	return sel
}

func (s *Selector) pick(d domain.Domain, subdomain string, lenses []domain.Lens) Selection {
	if byDomain, ok := s.tables.Templates[string(d)]; ok {
		if subdomain != "" {
			if titles, ok := byDomain[subdomain]; ok && len(titles) > 0 {
				return Selection{Titles: clone(titles), Source: SourceSubdomain}
			}
		}
		if titles, ok := byDomain["default"]; ok && len(titles) > 0 {
			return Selection{Titles: clone(titles), Source: SourceDomain}
		}
	}
	for _, lens := range lenses {
		if titles, ok := s.tables.LensTemplates[string(lens)]; ok && len(titles) > 0 {
			return Selection{Titles: clone(titles), Source: SourceLens, Lens: string(lens)}
		}
	}
	return Selection{Titles: clone(s.tables.FallbackTemplate), Source: SourceFallback}
}

// Clamp normalizes a title list to the bounds: blank and duplicate titles
// are dropped, extra titles are truncated and missing ones are padded from
// the global fallback. Each correction is reported as a warning.
func (s *Selector) Clamp(titles []string) ([]string, []string) {
	var warnings []string
	seen := make(map[string]bool)
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" {
			warnings = append(warnings, "dropped blank category title")
			continue
		}
		if seen[key] {
			warnings = append(warnings, fmt.Sprintf("dropped duplicate category %q", t))
			continue
		}
		seen[key] = true
		out = append(out, t)
	}

	if len(out) > s.bounds.Max {
		warnings = append(warnings, fmt.Sprintf("truncated %d categories to %d", len(out), s.bounds.Max))
		out = out[:s.bounds.Max]
	}

	if len(out) < s.bounds.Min {
		before := len(out)
		for _, t := range s.tables.FallbackTemplate {
			if len(out) >= s.bounds.Min {
				break
			}
			if seen[strings.ToLower(t)] {
				continue
			}
			seen[strings.ToLower(t)] = true
			out = append(out, t)
		}
		warnings = append(warnings, fmt.Sprintf("padded %d categories to %d from the fallback template", before, len(out)))
	}

	return out, warnings
}

func detectCategoryType(rules []taxonomy.Rule, title string) CategoryType {
	words := Tokenize(title)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					return CategoryType(rule.Name)
				}
			}
		}
	}
	return TypeGeneral
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}
