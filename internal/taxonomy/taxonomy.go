// Package taxonomy holds the keyword tables that drive domain routing,
// template selection and the lexical MECE checks.
//
// The tables are data, not code: a versioned YAML document is embedded in
// the binary and can be replaced at startup with a file of the same shape.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// SupportedVersion is the table schema version this build understands.
const SupportedVersion = 1

//go:embed tables.yaml
var embeddedTables []byte

// Rule is an ordered keyword rule: the first rule with a matching keyword wins.
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// ProblemTypeRule maps brief keywords to a problem type and its framing.
type ProblemTypeRule struct {
	Name         string   `yaml:"name"`
	Keywords     []string `yaml:"keywords"`
	LogicalOrder string   `yaml:"logical_order"`
	Complication string   `yaml:"complication"`
}

// LensRule lists the indicator words that activate an analysis lens.
type LensRule struct {
	Name       string   `yaml:"name"`
	Indicators []string `yaml:"indicators"`
}

// Stopwords are the two word lists used by the MECE validator.
type Stopwords struct {
	Titles   []string `yaml:"titles"`
	Concepts []string `yaml:"concepts"`
}

// Tables is the full heuristic data set.
type Tables struct {
	Version            int                            `yaml:"version"`
	Domains            map[string]map[string][]string `yaml:"domains"`
	Subdomains         map[string][]string            `yaml:"subdomains"`
	DefaultSubdomain   string                         `yaml:"default_subdomain"`
	ProblemTypes       []ProblemTypeRule              `yaml:"problem_types"`
	DefaultProblemType ProblemTypeRule                `yaml:"default_problem_type"`
	Lenses             []LensRule                     `yaml:"lenses"`
	DefaultLenses      map[string][]string            `yaml:"default_lenses"`
	Templates          map[string]map[string][]string `yaml:"templates"`
	LensTemplates      map[string][]string            `yaml:"lens_templates"`
	FallbackTemplate   []string                       `yaml:"fallback_template"`
	SearchTypes        map[string]string              `yaml:"search_types"`
	SearchSites        map[string]map[string][]string `yaml:"search_sites"`
	AcademicSources    []string                       `yaml:"academic_sources"`
	BusinessSources    []string                       `yaml:"business_sources"`
	Stopwords          Stopwords                      `yaml:"stopwords"`
	Synonyms           map[string][]string            `yaml:"synonyms"`
	CategoryTypes      []Rule                         `yaml:"category_types"`
	PolarityPairs      [][]string                     `yaml:"polarity_pairs"`
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// Default returns the embedded tables, parsed once per process.
func Default() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = Parse(embeddedTables)
	})
	return defaultTables, defaultErr
}

// MustDefault is Default for callers that cannot proceed without tables.
// The embedded document is covered by tests, so a failure here is a build defect.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads a tables document from disk. An empty path returns the embedded tables.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a tables document.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("taxonomy: parse: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) validate() error {
	if t.Version != SupportedVersion {
		return fmt.Errorf("taxonomy: unsupported version %d (want %d)", t.Version, SupportedVersion)
	}
	if len(t.Domains) == 0 {
		return fmt.Errorf("taxonomy: no domains defined")
	}
	if len(t.FallbackTemplate) == 0 {
		return fmt.Errorf("taxonomy: fallback_template must not be empty")
	}
	for i, pair := range t.PolarityPairs {
		if len(pair) != 2 {
			return fmt.Errorf("taxonomy: polarity_pairs[%d] must have exactly 2 words, got %d", i, len(pair))
		}
	}
	return nil
}

// DomainNames returns the scored domain names in alphabetical order.
func (t *Tables) DomainNames() []string {
	return sortedKeys(t.Domains)
}

// SubdomainNames returns the technical subdomain names in alphabetical order.
func (t *Tables) SubdomainNames() []string {
	return sortedKeys(t.Subdomains)
}

// DomainKeywords flattens a domain's keyword categories in category-name order.
func (t *Tables) DomainKeywords(domain string) []string {
	cats := t.Domains[domain]
	var out []string
	for _, name := range sortedKeys(cats) {
		out = append(out, cats[name]...)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
