package server

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/minto/internal/archive"
	"github.com/HendryAvila/minto/internal/config"
	"github.com/HendryAvila/minto/internal/engine"
	"github.com/HendryAvila/minto/internal/evidence"
	"github.com/HendryAvila/minto/internal/logging"
	"github.com/HendryAvila/minto/internal/runs"
	"github.com/HendryAvila/minto/internal/taxonomy"
	"github.com/HendryAvila/minto/internal/templates"
)

// Components are the long-lived pieces behind the MCP surface. The CLI
// uses them directly for offline runs.
type Components struct {
	Engine     *engine.Engine
	Store      *runs.MemoryStore
	Archive    *archive.Store // nil when disabled or unavailable
	Renderer   *templates.Renderer
	Principles templates.PrinciplesData
	SourceName string
}

// Build resolves every dependency from the configuration. Optional
// subsystems that fail to start (HTTP search, archive) are logged and
// replaced by their fallback rather than failing the build.
func Build(cfg *config.Config, logger *zap.Logger) (*Components, func(), error) {
	logger = logging.OrNop(logger)

	tables, err := taxonomy.Load(cfg.TaxonomyFile)
	if err != nil {
		return nil, noop, fmt.Errorf("loading taxonomy: %w", err)
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	store := runs.NewMemoryStore(cfg.Store.TTL, cfg.Store.MaxRuns)

	source := newSource(cfg, logger)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := engine.Deps{
		Config: cfg,
		Tables: tables,
		Store:  store,
		Source: source,
		Logger: logger,
	}

	var arch *archive.Store
	if cfg.Archive.Enabled {
		a, err := archive.New(archive.Config{DataDir: cfg.Archive.DataDir, MaxSearchResults: archive.DefaultConfig().MaxSearchResults})
		if err != nil {
			logger.Warn("archive subsystem disabled", zap.Error(err))
		} else {
			arch = a
			deps.Archive = a
			closers = append(closers, func() {
				if err := a.Close(); err != nil {
					logger.Warn("closing archive", zap.Error(err))
				}
			})
		}
	}

	eng, err := engine.New(deps)
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	if cfg.Store.SweepSchedule != "" {
		sweeper, err := runs.NewSweeper(store, cfg.Store.SweepSchedule, logger)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		sweeper.Start()
		closers = append(closers, sweeper.Stop)
	}

	return &Components{
		Engine:   eng,
		Store:    store,
		Archive:  arch,
		Renderer: renderer,
		Principles: templates.PrinciplesData{
			MinCategories:    eng.Bounds().Min,
			MaxCategories:    eng.Bounds().Max,
			OverallThreshold: cfg.Critique.OverallThreshold,
			AspectFloor:      cfg.Critique.AspectFloor,
		},
		SourceName: eng.SourceName(),
	}, cleanup, nil
}

// newSource returns the configured search backend, or nil for mock.
func newSource(cfg *config.Config, logger *zap.Logger) evidence.Source {
	if cfg.Search.Provider != config.ProviderTavily {
		return nil
	}
	opts := []evidence.HTTPOption{evidence.WithRetries(cfg.Search.Retries)}
	if cfg.Search.BaseURL != "" {
		opts = append(opts, evidence.WithBaseURL(cfg.Search.BaseURL))
	}
	src, err := evidence.NewHTTPSource(cfg.Search.APIKey, opts...)
	if err != nil {
		logger.Warn("search provider unavailable, using mock evidence",
			zap.String("provider", cfg.Search.Provider),
			zap.Error(err),
		)
		return nil
	}
	return src
}
