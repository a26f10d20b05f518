// Package archive keeps finalized pyramid deliverables in SQLite with an
// FTS5 index so past analyses can be searched by content.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned when no deliverable is archived for a run.
var ErrNotFound = errors.New("archive: deliverable not found")

// ─── Types ───────────────────────────────────────────────────────────────────

// Entry is one archived deliverable.
type Entry struct {
	ID        int64   `json:"id"`
	RunID     string  `json:"run_id"`
	Title     string  `json:"title"`
	Brief     string  `json:"brief"`
	Domain    string  `json:"domain"`
	Format    string  `json:"format"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	Passed    bool    `json:"passed"`
	Forced    bool    `json:"forced"`
	CreatedAt string  `json:"created_at"`
}

// SearchResult embeds an Entry with its FTS5 rank.
type SearchResult struct {
	Entry
	Rank float64 `json:"rank"`
}

// SearchOptions filters a search.
type SearchOptions struct {
	Domain string `json:"domain,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Stats summarizes the archive.
type Stats struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	ByDomain map[string]int `json:"by_domain"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds archive configuration.
type Config struct {
	DataDir          string
	MaxSearchResults int
}

// DefaultConfig returns the default archive configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".minto"),
		MaxSearchResults: 20,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the deliverable archive backed by SQLite + FTS5.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens (creating if needed) archive.db under cfg.DataDir.
func New(cfg Config) (*Store, error) {
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = DefaultConfig().MaxSearchResults
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("archive: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "archive.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("archive: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS deliverables (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT    NOT NULL UNIQUE,
			title      TEXT    NOT NULL,
			brief      TEXT    NOT NULL,
			domain     TEXT    NOT NULL,
			format     TEXT    NOT NULL,
			content    TEXT    NOT NULL,
			score      REAL    NOT NULL DEFAULT 0,
			passed     INTEGER NOT NULL DEFAULT 0,
			forced     INTEGER NOT NULL DEFAULT 0,
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_deliv_domain  ON deliverables(domain);
		CREATE INDEX IF NOT EXISTS idx_deliv_created ON deliverables(created_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS deliverables_fts USING fts5(
			title,
			brief,
			content,
			domain,
			content='deliverables',
			content_rowid='id'
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Create FTS triggers (idempotent)
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='deliv_fts_insert'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER deliv_fts_insert AFTER INSERT ON deliverables BEGIN
				INSERT INTO deliverables_fts(rowid, title, brief, content, domain)
				VALUES (new.id, new.title, new.brief, new.content, new.domain);
			END;

			CREATE TRIGGER deliv_fts_delete AFTER DELETE ON deliverables BEGIN
				INSERT INTO deliverables_fts(deliverables_fts, rowid, title, brief, content, domain)
				VALUES ('delete', old.id, old.title, old.brief, old.content, old.domain);
			END;

			CREATE TRIGGER deliv_fts_update AFTER UPDATE ON deliverables BEGIN
				INSERT INTO deliverables_fts(deliverables_fts, rowid, title, brief, content, domain)
				VALUES ('delete', old.id, old.title, old.brief, old.content, old.domain);
				INSERT INTO deliverables_fts(rowid, title, brief, content, domain)
				VALUES (new.id, new.title, new.brief, new.content, new.domain);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	return nil
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Save archives a deliverable. Saving the same run again replaces it.
func (s *Store) Save(ctx context.Context, e Entry) (int64, error) {
	if e.RunID == "" {
		return 0, errors.New("archive: run id is required")
	}
	if e.CreatedAt == "" {
		e.CreatedAt = Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliverables (run_id, title, brief, domain, format, content, score, passed, forced, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			title = excluded.title,
			brief = excluded.brief,
			domain = excluded.domain,
			format = excluded.format,
			content = excluded.content,
			score = excluded.score,
			passed = excluded.passed,
			forced = excluded.forced,
			created_at = excluded.created_at`,
		e.RunID, e.Title, e.Brief, e.Domain, e.Format, e.Content, e.Score, e.Passed, e.Forced, e.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("archive: save %s: %w", e.RunID, err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, "SELECT id FROM deliverables WHERE run_id = ?", e.RunID).Scan(&id); err != nil {
		return 0, fmt.Errorf("archive: save %s: %w", e.RunID, err)
	}
	return id, nil
}

// Delete removes the deliverable archived for a run.
func (s *Store) Delete(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM deliverables WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("archive: delete %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

const entryColumns = `id, run_id, title, brief, domain, format, content, score, passed, forced, created_at`

// Get returns the deliverable archived for a run.
func (s *Store) Get(ctx context.Context, runID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM deliverables WHERE run_id = ?", runID)
	var e Entry
	err := row.Scan(&e.ID, &e.RunID, &e.Title, &e.Brief, &e.Domain, &e.Format, &e.Content, &e.Score, &e.Passed, &e.Forced, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("archive: get %s: %w", runID, err)
	}
	return &e, nil
}

// Search runs a full-text query over titles, briefs and content. An empty
// query returns the most recent deliverables.
func (s *Store) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return s.searchRecent(ctx, opts, limit)
	}

	sqlStr := `
		SELECT d.id, d.run_id, d.title, d.brief, d.domain, d.format, d.content,
		       d.score, d.passed, d.forced, d.created_at, fts.rank
		FROM deliverables_fts fts
		JOIN deliverables d ON d.id = fts.rowid
		WHERE deliverables_fts MATCH ?
	`
	args := []any{ftsQuery}
	if opts.Domain != "" {
		sqlStr += " AND d.domain = ?"
		args = append(args, opts.Domain)
	}
	sqlStr += " ORDER BY fts.rank LIMIT ?"
	args = append(args, limit)

	return s.queryResults(ctx, sqlStr, args...)
}

// searchRecent returns the newest deliverables without FTS.
func (s *Store) searchRecent(ctx context.Context, opts SearchOptions, limit int) ([]SearchResult, error) {
	sqlStr := "SELECT " + entryColumns + ", 0 AS rank FROM deliverables"
	var args []any
	if opts.Domain != "" {
		sqlStr += " WHERE domain = ?"
		args = append(args, opts.Domain)
	}
	sqlStr += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	return s.queryResults(ctx, sqlStr, args...)
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("archive: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.Title, &r.Brief, &r.Domain, &r.Format, &r.Content,
			&r.Score, &r.Passed, &r.Forced, &r.CreatedAt, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Stats returns aggregate counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByDomain: map[string]int{}}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(passed), 0) FROM deliverables",
	).Scan(&st.Total, &st.Passed); err != nil {
		return nil, fmt.Errorf("archive: stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT domain, COUNT(*) FROM deliverables GROUP BY domain")
	if err != nil {
		return nil, fmt.Errorf("archive: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var domain string
		var n int
		if err := rows.Scan(&domain, &n); err != nil {
			return nil, err
		}
		st.ByDomain[domain] = n
	}
	return st, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "supplier costs" → `"supplier" "costs"`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}

// Now returns the current time formatted for SQLite.
func Now() string {
	return timeNow().UTC().Format("2006-01-02 15:04:05")
}

// timeNow is a package-level variable for testability.
var timeNow = time.Now
