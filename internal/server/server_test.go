package server

import (
	"testing"

	"github.com/HendryAvila/minto/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Archive.DataDir = t.TempDir()
	return cfg
}

func TestNew_RegistersAndCleansUp(t *testing.T) {
	s, cleanup, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cleanup()
	if s == nil {
		t.Fatal("server is nil")
	}
}

func TestBuild_ArchiveEnabled(t *testing.T) {
	c, cleanup, err := Build(testConfig(t), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer cleanup()
	if c.Archive == nil {
		t.Error("archive should be open")
	}
	if c.SourceName != "mock" {
		t.Errorf("SourceName = %q, want mock", c.SourceName)
	}
	if c.Principles.MaxCategories != 4 {
		t.Errorf("Principles = %+v", c.Principles)
	}
}

func TestBuild_ArchiveDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.Enabled = false
	c, cleanup, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer cleanup()
	if c.Archive != nil {
		t.Error("archive should be nil when disabled")
	}
}

func TestBuild_TavilyWithoutKeyFallsBackToMock(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.Provider = config.ProviderTavily
	cfg.Search.APIKey = ""
	c, cleanup, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer cleanup()
	if c.SourceName != "mock" {
		t.Errorf("SourceName = %q, want mock", c.SourceName)
	}
}

func TestBuild_TavilySource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.Provider = config.ProviderTavily
	cfg.Search.APIKey = "test-key"
	c, cleanup, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer cleanup()
	if c.SourceName != "http" {
		t.Errorf("SourceName = %q, want http", c.SourceName)
	}
}

func TestBuild_BadSweepSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.SweepSchedule = "not a schedule"
	if _, _, err := Build(cfg, nil); err == nil {
		t.Fatal("expected error for invalid sweep schedule")
	}
}

func TestBuild_MissingTaxonomyFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.TaxonomyFile = "/nonexistent/tables.yaml"
	if _, _, err := Build(cfg, nil); err == nil {
		t.Fatal("expected error for missing taxonomy file")
	}
}

func TestBuild_RejectsMinCategoriesAboveFallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.Enabled = false
	cfg.MECE.MinCategories, cfg.MECE.MaxCategories = 7, 9
	if _, _, err := Build(cfg, nil); err == nil {
		t.Fatal("expected error when the fallback template cannot pad to min_categories")
	}
}
