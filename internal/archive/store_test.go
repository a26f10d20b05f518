package archive_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HendryAvila/minto/internal/archive"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *archive.Store {
	t.Helper()
	s, err := archive.New(archive.Config{DataDir: t.TempDir(), MaxSearchResults: 20})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(runID, domain, content string) archive.Entry {
	return archive.Entry{
		RunID:   runID,
		Title:   "Minto Pyramid Analysis: " + runID,
		Brief:   "Brief for " + runID,
		Domain:  domain,
		Format:  "markdown",
		Content: content,
		Score:   0.9,
		Passed:  true,
	}
}

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_CreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	s, err := archive.New(archive.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, err := os.Stat(filepath.Join(dir, "archive.db")); err != nil {
		t.Fatalf("archive.db not created: %v", err)
	}
}

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := archive.New(archive.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := s1.Save(ctx, entry("run00001", "business", "supplier consolidation")); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = s1.Close()

	s2, err := archive.New(archive.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer func() { _ = s2.Close() }()

	got, err := s2.Get(ctx, "run00001")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Content != "supplier consolidation" {
		t.Errorf("Content = %q", got.Content)
	}

	var n int
	if err := s2.DB().QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='trigger'").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("triggers = %d, want 3", n)
	}
}

// ─── Save / Get ─────────────────────────────────────────────────────────────

func TestSave_RequiresRunID(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Save(context.Background(), archive.Entry{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestSave_ReplacesSameRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.Save(ctx, entry("run00001", "business", "first draft"))
	if err != nil {
		t.Fatalf("save 1: %v", err)
	}
	e := entry("run00001", "business", "second draft")
	e.Forced = true
	id2, err := s.Save(ctx, e)
	if err != nil {
		t.Fatalf("save 2: %v", err)
	}
	if id1 != id2 {
		t.Errorf("ids differ: %d vs %d", id1, id2)
	}

	got, err := s.Get(ctx, "run00001")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "second draft" || !got.Forced {
		t.Errorf("Get = %+v", got)
	}

	// The FTS index follows the update trigger.
	res, err := s.Search(ctx, "first", archive.SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Errorf("stale FTS row for replaced content: %+v", res)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, archive.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSave_StampsCreatedAt(t *testing.T) {
	restore := archive.SetClock(func() time.Time {
		return time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)
	})
	defer restore()

	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Save(ctx, entry("run00001", "business", "x")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "run00001")
	if err != nil {
		t.Fatal(err)
	}
	if got.CreatedAt != "2026-02-23 12:00:00" {
		t.Errorf("CreatedAt = %q", got.CreatedAt)
	}
}

// ─── Delete ─────────────────────────────────────────────────────────────────

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Save(ctx, entry("run00001", "business", "negotiation leverage")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "run00001"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "run00001"); !errors.Is(err, archive.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
	res, err := s.Search(ctx, "negotiation", archive.SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Errorf("deleted row still searchable: %+v", res)
	}
}

// ─── Search ─────────────────────────────────────────────────────────────────

func TestSearch_FullText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, e := range []archive.Entry{
		entry("run00001", "business", "Supplier consolidation reduces procurement cost"),
		entry("run00002", "medical", "Clinical trial evidence for statins"),
		entry("run00003", "business", "Pricing strategy for subscription products"),
	} {
		if _, err := s.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name  string
		query string
		opts  archive.SearchOptions
		want  []string
	}{
		{"single word", "statins", archive.SearchOptions{}, []string{"run00002"}},
		{"two words", "supplier procurement", archive.SearchOptions{}, []string{"run00001"}},
		{"domain filter hit", "strategy", archive.SearchOptions{Domain: "business"}, []string{"run00003"}},
		{"domain filter miss", "strategy", archive.SearchOptions{Domain: "medical"}, nil},
		{"quotes are stripped", `"clinical`, archive.SearchOptions{}, []string{"run00002"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Search(ctx, tt.query, tt.opts)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(res) != len(tt.want) {
				t.Fatalf("got %d results, want %d: %+v", len(res), len(tt.want), res)
			}
			for i, id := range tt.want {
				if res[i].RunID != id {
					t.Errorf("result[%d] = %s, want %s", i, res[i].RunID, id)
				}
			}
		})
	}
}

func TestSearch_EmptyQueryReturnsRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"run00001", "run00002", "run00003"} {
		e := entry(id, "business", "content")
		e.CreatedAt = time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02 15:04:05")
		if _, err := s.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	res, err := s.Search(ctx, "  ", archive.SearchOptions{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Fatalf("got %d results, want 2", len(res))
	}
	if res[0].RunID != "run00003" || res[1].RunID != "run00002" {
		t.Errorf("order = %s, %s", res[0].RunID, res[1].RunID)
	}
}

func TestSearch_LimitCappedByConfig(t *testing.T) {
	s, err := archive.New(archive.Config{DataDir: t.TempDir(), MaxSearchResults: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.Save(ctx, entry(id, "general", "shared words")); err != nil {
			t.Fatal(err)
		}
	}
	res, err := s.Search(ctx, "shared", archive.SearchOptions{Limit: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Errorf("got %d results, want 2", len(res))
	}
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	failed := entry("run00003", "medical", "x")
	failed.Passed = false
	for _, e := range []archive.Entry{
		entry("run00001", "business", "x"),
		entry("run00002", "business", "x"),
		failed,
	} {
		if _, err := s.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 3 || st.Passed != 2 {
		t.Errorf("Stats = %+v", st)
	}
	if st.ByDomain["business"] != 2 || st.ByDomain["medical"] != 1 {
		t.Errorf("ByDomain = %v", st.ByDomain)
	}
}
