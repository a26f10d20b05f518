package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/HendryAvila/minto/internal/pyramid"
)

// DefaultBaseURL is the Tavily search endpoint.
const DefaultBaseURL = "https://api.tavily.com"

const retryBackoff = 250 * time.Millisecond

// HTTPSource queries a Tavily-compatible JSON search API.
type HTTPSource struct {
	apiKey  string
	baseURL string
	retries int
	client  *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithBaseURL points the source at another endpoint.
func WithBaseURL(u string) HTTPOption {
	return func(s *HTTPSource) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) HTTPOption {
	return func(s *HTTPSource) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// NewHTTPSource creates a search client. apiKey is required.
func NewHTTPSource(apiKey string, opts ...HTTPOption) (*HTTPSource, error) {
	if apiKey == "" {
		return nil, errors.New("search api key is required")
	}
	s := &HTTPSource{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		retries: 2,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the origin tag of HTTP evidence.
func (s *HTTPSource) Name() string { return pyramid.OriginHTTP }

// Search posts q to the search API, retrying transient failures.
func (s *HTTPSource) Search(ctx context.Context, q Query) ([]Result, error) {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}
		results, err := s.search(ctx, q)
		if err == nil {
			return results, nil
		}
		lastErr = err
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (s *HTTPSource) search(ctx context.Context, q Query) ([]Result, error) {
	n := q.MaxResults
	if n <= 0 {
		n = 3
	}
	body, err := json.Marshal(searchRequest{
		APIKey:         s.apiKey,
		Query:          q.String(),
		MaxResults:     n,
		SearchDepth:    "basic",
		IncludeDomains: q.Sites,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: string(msg)}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]Result, 0, len(sr.Results))
	for _, r := range sr.Results {
		results = append(results, Result{
			Content:    r.Content,
			Source:     sourceLabel(r.Title, r.URL),
			URL:        r.URL,
			Confidence: clamp01(r.Score),
			Relevance:  clamp01(r.Score),
			Recency:    r.PublishedDate,
		})
	}
	return results, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("search api returned status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

func sourceLabel(title, rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return title
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// =============================================================================
// SEARCH API TYPES
// =============================================================================

type searchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}
