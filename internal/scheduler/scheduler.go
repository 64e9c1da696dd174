// Package scheduler wires up the cron job that periodically runs a full
// pass over the search space.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobboard/scrape-service/internal/logging"
	"jobboard/scrape-service/internal/scraper"
)

// Pass runs the whole search space once.
type Pass interface {
	RunAll(ctx context.Context, req scraper.Request) (scraper.Summary, error)
}

// Scheduler wraps robfig/cron and manages the scrape loop.
type Scheduler struct {
	cron   *cron.Cron
	runner Pass
	log    *zap.Logger
	spec   string // cron spec, e.g. "@every 6h"

	mu sync.Mutex // serializes passes
}

// New creates a Scheduler that fires every intervalHours hours.
func New(runner Pass, intervalHours int, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scheduler")
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(logging.CronLogger{S: log.Sugar()})),
		runner: runner,
		log:    log,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one pass
// immediately so the board is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runPass(ctx)
	})
	if err != nil {
		return errors.Wrapf(err, "cron add %q", s.spec)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec))

	go s.runPass(ctx)

	return nil
}

// Stop halts the scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Info("cron stopped")
}

// runPass runs one full pass. A tick that arrives while a pass is still
// running is dropped.
func (s *Scheduler) runPass(ctx context.Context) {
	if !s.mu.TryLock() {
		s.log.Warn("previous pass still running, skipping tick")
		return
	}
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	s.log.Info("scrape pass started")
	sum, err := s.runner.RunAll(ctx, scraper.Request{})
	if err != nil {
		s.log.Error("scrape pass failed", zap.String("run_id", sum.RunID), zap.Int("batches", sum.Batches), zap.Error(err))
		return
	}
	s.log.Info("scrape pass complete",
		zap.String("run_id", sum.RunID),
		zap.Int("inserted", sum.Inserted),
		zap.Int("total_found", sum.TotalFound),
	)
}
