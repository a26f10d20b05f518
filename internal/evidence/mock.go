package evidence

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/pyramid"
)

const (
	mockMaxResults = 3
	mockSlugLen    = 50
	mockConfMin    = 0.85
	mockConfSpan   = 0.10
	mockRelevance  = 0.90
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// MockSource produces deterministic synthetic evidence. Confidence falls
// in [0.85, 0.95] and depends only on the query text and rank.
type MockSource struct{}

// NewMockSource creates a MockSource.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Name returns the origin tag of mock evidence.
func (m *MockSource) Name() string { return pyramid.OriginMock }

// Search returns up to three synthetic results for q.
func (m *MockSource) Search(ctx context.Context, q Query) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := q.MaxResults
	if n <= 0 || n > mockMaxResults {
		n = mockMaxResults
	}
	source := "Industry Report"
	if q.SearchType == domain.SearchAcademic || q.SearchType == domain.SearchMedical {
		source = "Research Paper"
	}
	recency := fmt.Sprintf("%d-01-01", timeNow().Year())

	results := make([]Result, n)
	for i := range results {
		results[i] = Result{
			Content:    "Evidence supporting: " + q.Text,
			Source:     source,
			URL:        "https://example.com/" + Slug(q.Text),
			Confidence: MockConfidence(q.Text, i),
			Relevance:  mockRelevance,
			Recency:    recency,
		}
	}
	return results, nil
}

// MockConfidence maps (text, rank) to a stable score in [0.85, 0.95].
func MockConfidence(text string, rank int) float64 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s#%d", text, rank)
	bucket := float64(h.Sum32()%1001) / 1000
	return round2(mockConfMin + bucket*mockConfSpan)
}

// Slug lowercases text, joins words with hyphens and truncates to 50 bytes.
func Slug(text string) string {
	s := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(text), "-"), "-")
	if len(s) > mockSlugLen {
		s = strings.TrimRight(s[:mockSlugLen], "-")
	}
	return s
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
