package evidence

import (
	"context"
	"strings"

	"github.com/HendryAvila/minto/internal/domain"
)

// Query is one search request sent to a Source.
type Query struct {
	Text       string
	SearchType domain.SearchType
	Sites      []string
	MaxResults int
}

// String returns the query text with any site hint appended.
func (q Query) String() string {
	hint := SiteHint(q.Sites)
	if hint == "" {
		return q.Text
	}
	return strings.TrimSpace(q.Text + " " + hint)
}

// Result is one hit returned by a Source.
type Result struct {
	Content    string
	Source     string
	URL        string
	Confidence float64
	Relevance  float64
	Recency    string
}

// Source is a search backend. Implementations should honor ctx; the
// Gatherer abandons a call once its per-query deadline passes either way.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Result, error)
}
