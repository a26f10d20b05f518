package evidence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/minto/internal/config"
	"github.com/HendryAvila/minto/internal/logging"
	"github.com/HendryAvila/minto/internal/pyramid"
)

// ErrNoTasks is returned when a stage selects no evidence tasks.
var ErrNoTasks = errors.New("no evidence tasks selected")

// Options bounds the evidence fan-out.
type Options struct {
	MaxResultsPerQuery int
	QueryTimeout       time.Duration
	Concurrency        int
}

// OptionsFromConfig copies the evidence section of the configuration.
func OptionsFromConfig(c config.EvidenceConfig) Options {
	return Options{
		MaxResultsPerQuery: c.MaxResultsPerQuery,
		QueryTimeout:       c.QueryTimeout,
		Concurrency:        c.Concurrency,
	}
}

// Outcome is what one Gather call produced.
type Outcome struct {
	// Evidence holds the items per reason, in task order.
	Evidence map[string][]pyramid.EvidenceItem
	// Reasons lists every reason a task targeted, even those with no items.
	Reasons     []string
	Diagnostics []string
	Queries     int
	Degraded    int
}

// Total returns the number of items gathered.
func (o *Outcome) Total() int {
	n := 0
	for _, items := range o.Evidence {
		n += len(items)
	}
	return n
}

// Gatherer runs evidence tasks concurrently against a Source.
type Gatherer struct {
	source   Source
	fallback Source
	opts     Options
	logger   *zap.Logger
}

// NewGatherer creates a Gatherer. A nil source means mock only.
func NewGatherer(source Source, opts Options, logger *zap.Logger) *Gatherer {
	fallback := NewMockSource()
	if source == nil {
		source = fallback
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Gatherer{
		source:   source,
		fallback: fallback,
		opts:     opts,
		logger:   logging.OrNop(logger).Named("evidence"),
	}
}

// Source returns the primary search backend.
func (g *Gatherer) Source() Source { return g.source }

type taskResult struct {
	items      []pyramid.EvidenceItem
	diagnostic string
	degraded   bool
}

// Gather runs every task and blocks until all finish. Each query gets its
// own timeout; a failed or slow query is answered by the mock instead.
// Only cancellation of ctx itself aborts the stage.
func (g *Gatherer) Gather(ctx context.Context, tasks []pyramid.EvidenceTask) (*Outcome, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	results := make([]taskResult, len(tasks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, task := range tasks {
		eg.Go(func() error {
			res, err := g.run(egCtx, task)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("gathering evidence: %w", err)
	}

	out := &Outcome{
		Evidence: make(map[string][]pyramid.EvidenceItem),
		Queries:  len(tasks),
	}
	seen := make(map[string]bool)
	for i, task := range tasks {
		if !seen[task.ReasonID] {
			seen[task.ReasonID] = true
			out.Reasons = append(out.Reasons, task.ReasonID)
			out.Evidence[task.ReasonID] = []pyramid.EvidenceItem{}
		}
		out.Evidence[task.ReasonID] = append(out.Evidence[task.ReasonID], results[i].items...)
		if results[i].degraded {
			out.Degraded++
			out.Diagnostics = append(out.Diagnostics, results[i].diagnostic)
		}
	}
	g.logger.Info("evidence gathered",
		zap.Int("queries", out.Queries),
		zap.Int("items", out.Total()),
		zap.Int("degraded", out.Degraded),
		zap.String("source", g.source.Name()),
	)
	return out, nil
}

func (g *Gatherer) run(ctx context.Context, task pyramid.EvidenceTask) (taskResult, error) {
	q := Query{
		Text:       task.Query,
		SearchType: task.SearchType,
		Sites:      task.Sites,
		MaxResults: g.opts.MaxResultsPerQuery,
	}

	found, err := g.search(ctx, q)
	if err == nil {
		return taskResult{items: g.items(task, found, g.source.Name(), false)}, nil
	}
	if ctx.Err() != nil {
		return taskResult{}, ctx.Err()
	}

	g.logger.Warn("search failed, using mock evidence",
		zap.String("reason_id", task.ReasonID),
		zap.String("query", task.Query),
		zap.Error(err),
	)
	found, ferr := g.fallback.Search(ctx, q)
	if ferr != nil {
		return taskResult{}, ferr
	}
	return taskResult{
		items:      g.items(task, found, g.fallback.Name(), true),
		degraded:   true,
		diagnostic: fmt.Sprintf("%s: query %q fell back to mock evidence: %v", task.ReasonID, task.Query, err),
	}, nil
}

type searchReply struct {
	found []Result
	err   error
}

// search calls the primary source under the per-query timeout. The call
// runs in its own goroutine so a source that ignores ctx still gives up
// its slot when the deadline passes.
func (g *Gatherer) search(ctx context.Context, q Query) ([]Result, error) {
	qctx, cancel := ctx, context.CancelFunc(func() {})
	if g.opts.QueryTimeout > 0 {
		qctx, cancel = context.WithTimeout(ctx, g.opts.QueryTimeout)
	}
	defer cancel()

	reply := make(chan searchReply, 1)
	go func() {
		found, err := g.source.Search(qctx, q)
		reply <- searchReply{found: found, err: err}
	}()

	select {
	case r := <-reply:
		return r.found, r.err
	case <-qctx.Done():
		return nil, fmt.Errorf("search %s: %w", g.source.Name(), qctx.Err())
	}
}

func (g *Gatherer) items(task pyramid.EvidenceTask, found []Result, origin string, degraded bool) []pyramid.EvidenceItem {
	now := timeNow().UTC()
	items := make([]pyramid.EvidenceItem, len(found))
	for i, r := range found {
		items[i] = pyramid.EvidenceItem{
			Content:    r.Content,
			Source:     r.Source,
			URL:        r.URL,
			Confidence: r.Confidence,
			Relevance:  r.Relevance,
			Recency:    r.Recency,
			Provenance: pyramid.Provenance{
				Query:       task.Query,
				Purpose:     task.Purpose,
				Rank:        i + 1,
				Origin:      origin,
				Degraded:    degraded,
				RetrievedAt: now,
			},
		}
	}
	return items
}

// SelectTasks returns the tasks for one stage: "all" or a reason id.
func SelectTasks(tasks []pyramid.EvidenceTask, stage string) []pyramid.EvidenceTask {
	if stage == "" || stage == "all" {
		return tasks
	}
	var out []pyramid.EvidenceTask
	for _, t := range tasks {
		if t.ReasonID == stage {
			out = append(out, t)
		}
	}
	return out
}

// Merge writes an outcome into the record. In replace mode every targeted
// reason's evidence is overwritten, so repeated runs keep stable counts.
// In append mode items accumulate.
func Merge(rec *pyramid.Record, out *Outcome, mode string) {
	if rec.Evidence == nil {
		rec.Evidence = make(map[string][]pyramid.EvidenceItem)
	}
	for _, id := range out.Reasons {
		items := out.Evidence[id]
		if mode == config.EvidenceAppend {
			rec.Evidence[id] = append(rec.Evidence[id], items...)
			continue
		}
		rec.Evidence[id] = append([]pyramid.EvidenceItem(nil), items...)
	}
	rec.Diagnostics = append(rec.Diagnostics, out.Diagnostics...)
	rec.EvidenceSummary = Summarize(rec)
}

// Summarize aggregates evidence per reason in reason order.
func Summarize(rec *pyramid.Record) []pyramid.ReasonSummary {
	summaries := make([]pyramid.ReasonSummary, 0, len(rec.Reasons))
	for _, r := range rec.Reasons {
		items := rec.Evidence[r.ID]
		s := pyramid.ReasonSummary{
			ReasonID:      r.ID,
			Title:         r.Title,
			EvidenceCount: len(items),
			Sources:       []string{},
		}
		for _, it := range items {
			s.AvgConfidence += it.Confidence
			s.AvgRelevance += it.Relevance
			s.Sources = append(s.Sources, it.Source)
		}
		if len(items) > 0 {
			s.AvgConfidence /= float64(len(items))
			s.AvgRelevance /= float64(len(items))
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// TopItems returns up to n items ordered by confidence, highest first.
func TopItems(items []pyramid.EvidenceItem, n int) []pyramid.EvidenceItem {
	sorted := append([]pyramid.EvidenceItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
