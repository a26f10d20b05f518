package runs

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/HendryAvila/minto/internal/logging"
)

// Sweeper periodically expires idle runs.
type Sweeper struct {
	cron   *cron.Cron
	store  Store
	logger *zap.Logger
}

// NewSweeper schedules store.Sweep on a cron schedule such as "@every 5m".
func NewSweeper(store Store, schedule string, logger *zap.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:   cron.New(),
		store:  store,
		logger: logging.OrNop(logger).Named("sweeper"),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("scheduling run sweep %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins sweeping in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Debug("run sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Debug("run sweeper stopped")
}

func (s *Sweeper) run() {
	if n := s.store.Sweep(timeNow()); n > 0 {
		s.logger.Info("expired idle runs", zap.Int("count", n), zap.Int("live", s.store.Len()))
	}
}
