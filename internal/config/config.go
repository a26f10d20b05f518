// Package config loads the server's policy constants: MECE bounds, critique
// thresholds, evidence fan-out limits, run retention, search provider and
// archive location.
//
// Values come from a YAML file and are then overridden by environment
// variables. A missing file is not an error; defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Search providers.
const (
	ProviderMock   = "mock"
	ProviderTavily = "tavily"
)

// Evidence merge modes.
const (
	EvidenceReplace = "replace"
	EvidenceAppend  = "append"
)

// MECEConfig bounds the number of categories per pyramid level.
// The template selector and the validator share the same bound.
// MinCategories is capped by the taxonomy's fallback template, which
// supplies the padding titles; the engine rejects a larger value.
type MECEConfig struct {
	MinCategories int `yaml:"min_categories"`
	MaxCategories int `yaml:"max_categories"`
	// StemCoverage also counts a shared five-letter prefix as covering a
	// brief concept. Off by default: coverage is substring or synonym only.
	StemCoverage bool `yaml:"stem_coverage"`
}

// CritiqueConfig holds the quality gate thresholds.
type CritiqueConfig struct {
	OverallThreshold  float64 `yaml:"overall_threshold"`
	AspectFloor       float64 `yaml:"aspect_floor"`
	SemanticRelevance bool    `yaml:"semantic_relevance"`
}

// EvidenceConfig controls the evidence fan-out.
type EvidenceConfig struct {
	MaxResultsPerQuery int           `yaml:"max_results_per_query"`
	QueryTimeout       time.Duration `yaml:"query_timeout"`
	Concurrency        int           `yaml:"concurrency"`
	TargetPerReason    int           `yaml:"target_per_reason"`
	TopPerReason       int           `yaml:"top_per_reason"`
	Mode               string        `yaml:"mode"` // replace | append
}

// SearchConfig selects the upstream search collaborator.
type SearchConfig struct {
	Provider string `yaml:"provider"` // mock | tavily
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Retries  int    `yaml:"retries"`
}

// StoreConfig controls run retention.
type StoreConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	MaxRuns       int           `yaml:"max_runs"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

// ArchiveConfig controls the SQLite archive of finalized deliverables.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
}

// Config is the full server configuration.
type Config struct {
	LogLevel     string         `yaml:"log_level"`
	LogFormat    string         `yaml:"log_format"` // json | console
	TaxonomyFile string         `yaml:"taxonomy_file"`
	MECE         MECEConfig     `yaml:"mece"`
	Critique     CritiqueConfig `yaml:"critique"`
	Evidence     EvidenceConfig `yaml:"evidence"`
	Search       SearchConfig   `yaml:"search"`
	Store        StoreConfig    `yaml:"store"`
	Archive      ArchiveConfig  `yaml:"archive"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		MECE: MECEConfig{
			MinCategories: 3,
			MaxCategories: 4,
		},
		Critique: CritiqueConfig{
			OverallThreshold: 0.75,
			AspectFloor:      0.60,
		},
		Evidence: EvidenceConfig{
			MaxResultsPerQuery: 3,
			QueryTimeout:       10 * time.Second,
			Concurrency:        8,
			TargetPerReason:    2,
			TopPerReason:       3,
			Mode:               EvidenceReplace,
		},
		Search: SearchConfig{
			Provider: ProviderMock,
			Retries:  2,
		},
		Store: StoreConfig{
			TTL:           24 * time.Hour,
			MaxRuns:       500,
			SweepSchedule: "@every 5m",
		},
		Archive: ArchiveConfig{
			Enabled: true,
			DataDir: filepath.Join(home, ".minto"),
		},
	}
}

// Load reads the config file at path (or the default location when path is
// empty), applies environment overrides and validates the result.
// A missing file at the default location falls back to defaults; a missing
// file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = getConfigPath()
	}
	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			if !os.IsNotExist(err) || explicit {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if level := os.Getenv("MINTO_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if format := os.Getenv("MINTO_LOG_FORMAT"); format != "" {
		c.LogFormat = format
	}
	if dir := os.Getenv("MINTO_DATA_DIR"); dir != "" {
		c.Archive.DataDir = dir
	}
	if provider := os.Getenv("MINTO_SEARCH_PROVIDER"); provider != "" {
		c.Search.Provider = provider
	}
	if key := os.Getenv("MINTO_SEARCH_API_KEY"); key != "" {
		c.Search.APIKey = key
	} else if key := os.Getenv("TAVILY_API_KEY"); key != "" && c.Search.APIKey == "" {
		c.Search.APIKey = key
	}
	if raw := os.Getenv("MINTO_QUERY_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			c.Evidence.QueryTimeout = d
		}
	}
	if raw := os.Getenv("MINTO_ARCHIVE_ENABLED"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			c.Archive.Enabled = b
		}
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.MECE.MinCategories < 1 {
		return fmt.Errorf("config: mece.min_categories must be >= 1, got %d", c.MECE.MinCategories)
	}
	if c.MECE.MaxCategories < c.MECE.MinCategories {
		return fmt.Errorf("config: mece.max_categories (%d) must be >= min_categories (%d)",
			c.MECE.MaxCategories, c.MECE.MinCategories)
	}
	if !unitInterval(c.Critique.OverallThreshold) {
		return fmt.Errorf("config: critique.overall_threshold must be within [0,1], got %v", c.Critique.OverallThreshold)
	}
	if !unitInterval(c.Critique.AspectFloor) {
		return fmt.Errorf("config: critique.aspect_floor must be within [0,1], got %v", c.Critique.AspectFloor)
	}
	if c.Evidence.QueryTimeout <= 0 {
		return fmt.Errorf("config: evidence.query_timeout must be positive")
	}
	if c.Evidence.Concurrency < 1 {
		return fmt.Errorf("config: evidence.concurrency must be >= 1, got %d", c.Evidence.Concurrency)
	}
	if c.Evidence.MaxResultsPerQuery < 1 {
		return fmt.Errorf("config: evidence.max_results_per_query must be >= 1, got %d", c.Evidence.MaxResultsPerQuery)
	}
	if c.Evidence.TargetPerReason < 1 {
		return fmt.Errorf("config: evidence.target_per_reason must be >= 1, got %d", c.Evidence.TargetPerReason)
	}
	switch c.Evidence.Mode {
	case EvidenceReplace, EvidenceAppend:
	default:
		return fmt.Errorf("config: evidence.mode must be one of: replace, append; got %q", c.Evidence.Mode)
	}
	switch c.Search.Provider {
	case ProviderMock, ProviderTavily:
	default:
		return fmt.Errorf("config: search.provider must be one of: mock, tavily; got %q", c.Search.Provider)
	}
	if c.Store.TTL <= 0 {
		return fmt.Errorf("config: store.ttl must be positive")
	}
	if c.Store.MaxRuns < 1 {
		return fmt.Errorf("config: store.max_runs must be >= 1, got %d", c.Store.MaxRuns)
	}
	return nil
}

func unitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

// getConfigPath returns the config file location.
// Priority: $MINTO_CONFIG > ~/.config/minto/config.yaml
func getConfigPath() string {
	if configPath := os.Getenv("MINTO_CONFIG"); configPath != "" {
		return configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "minto", "config.yaml")
}
