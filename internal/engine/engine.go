// Package engine runs the pyramid operations against the run store. Every
// mutation happens inside runs.Store.Update, so stages for the same run are
// serialized while different runs proceed independently.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/minto/internal/archive"
	"github.com/HendryAvila/minto/internal/config"
	"github.com/HendryAvila/minto/internal/critique"
	"github.com/HendryAvila/minto/internal/domain"
	"github.com/HendryAvila/minto/internal/evidence"
	"github.com/HendryAvila/minto/internal/logging"
	"github.com/HendryAvila/minto/internal/mece"
	"github.com/HendryAvila/minto/internal/runs"
	"github.com/HendryAvila/minto/internal/taxonomy"
	"github.com/HendryAvila/minto/internal/templates"
)

// ErrRunNotFound is returned for an unknown or expired run id.
var ErrRunNotFound = runs.ErrNotFound

// ErrUnknownReason is returned when an evidence stage names a reason the
// run does not have.
var ErrUnknownReason = errors.New("unknown reason")

// Archiver stores finalized deliverables. *archive.Store satisfies it.
type Archiver interface {
	Save(ctx context.Context, e archive.Entry) (int64, error)
}

// Deps are the collaborators an Engine needs. Config, Tables and Store are
// required; a nil Source means mock evidence and a nil Archive disables
// archiving.
type Deps struct {
	Config  *config.Config
	Tables  *taxonomy.Tables
	Store   runs.Store
	Source  evidence.Source
	Archive Archiver
	Logger  *zap.Logger
}

// Engine orchestrates classification, planning and the pipeline stages.
type Engine struct {
	cfg        *config.Config
	store      runs.Store
	classifier *domain.Classifier
	selector   *mece.Selector
	validator  *mece.Validator
	gatherer   *evidence.Gatherer
	critic     *critique.Critic
	renderer   *templates.Renderer
	archive    Archiver
	logger     *zap.Logger
}

// New wires an Engine from its dependencies.
func New(d Deps) (*Engine, error) {
	if d.Config == nil || d.Tables == nil || d.Store == nil {
		return nil, errors.New("engine: config, tables and store are required")
	}
	bounds := mece.Bounds{Min: d.Config.MECE.MinCategories, Max: d.Config.MECE.MaxCategories}
	if err := mece.CheckBounds(d.Tables, bounds); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	logger := logging.OrNop(d.Logger)
	classifier := domain.NewClassifier(d.Tables)
	validator := mece.NewValidator(d.Tables, bounds, mece.WithStemCoverage(d.Config.MECE.StemCoverage))

	return &Engine{
		cfg:        d.Config,
		store:      d.Store,
		classifier: classifier,
		selector:   mece.NewSelector(d.Tables, bounds),
		validator:  validator,
		gatherer:   evidence.NewGatherer(d.Source, evidence.OptionsFromConfig(d.Config.Evidence), logger),
		critic:     critique.New(d.Tables, validator, classifier, critique.OptionsFromConfig(d.Config)),
		renderer:   renderer,
		archive:    d.Archive,
		logger:     logger.Named("engine"),
	}, nil
}

// Bounds returns the configured category bounds.
func (e *Engine) Bounds() mece.Bounds { return e.selector.Bounds() }

// SourceName names the primary evidence backend ("mock" or "http").
func (e *Engine) SourceName() string { return e.gatherer.Source().Name() }
