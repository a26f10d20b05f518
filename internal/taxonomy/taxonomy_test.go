package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault_ParsesEmbeddedTables(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	if tables.Version != SupportedVersion {
		t.Errorf("version = %d, want %d", tables.Version, SupportedVersion)
	}

	want := []string{"business", "legal", "medical", "scientific", "social", "technical"}
	if diff := cmp.Diff(want, tables.DomainNames()); diff != "" {
		t.Errorf("DomainNames() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"Current State & Context", "Key Challenges", "Potential Solutions"}, tables.FallbackTemplate); diff != "" {
		t.Errorf("fallback template mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault_SubdomainsCoverTechnicalSet(t *testing.T) {
	tables := MustDefault()
	for _, name := range []string{"algorithm", "optimization", "system_design", "hardware", "photonics", "ai_ml", "quantum", "distributed"} {
		if len(tables.Subdomains[name]) == 0 {
			t.Errorf("subdomain %q has no keywords", name)
		}
	}
}

func TestDefault_TemplatesWithinCognitiveBounds(t *testing.T) {
	tables := MustDefault()
	for domain, subs := range tables.Templates {
		for sub, titles := range subs {
			if len(titles) < 3 || len(titles) > 4 {
				t.Errorf("template %s/%s has %d titles, want 3..4", domain, sub, len(titles))
			}
		}
	}
	for lens, titles := range tables.LensTemplates {
		if len(titles) < 3 || len(titles) > 4 {
			t.Errorf("lens template %s has %d titles, want 3..4", lens, len(titles))
		}
	}
}

func TestDomainKeywords_StableOrder(t *testing.T) {
	tables := MustDefault()
	first := tables.DomainKeywords("business")
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, tables.DomainKeywords("business")); diff != "" {
			t.Fatalf("DomainKeywords order changed between calls:\n%s", diff)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"bad yaml", "version: [", "parse"},
		{"wrong version", "version: 2\ndomains: {a: {b: [c]}}\nfallback_template: [x]", "unsupported version"},
		{"no domains", "version: 1\nfallback_template: [x]", "no domains"},
		{"no fallback", "version: 1\ndomains: {a: {b: [c]}}", "fallback_template"},
		{"bad polarity", "version: 1\ndomains: {a: {b: [c]}}\nfallback_template: [x]\npolarity_pairs: [[up]]", "polarity_pairs[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	doc := "version: 1\ndomains:\n  cooking:\n    core: [recipe, oven]\nfallback_template: [A, B, C]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	tables, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff([]string{"recipe", "oven"}, tables.DomainKeywords("cooking")); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EmptyPathUsesEmbedded(t *testing.T) {
	tables, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if tables != MustDefault() {
		t.Error("Load(\"\") should return the shared embedded tables")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
