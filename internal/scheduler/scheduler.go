// Package scheduler repeats a run on a fixed interval until shut down.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RunFunc performs one full run.
type RunFunc func(ctx context.Context) error

// Scheduler owns the watch loop: it runs once immediately, then again each
// time the interval elapses after the previous run finished.
type Scheduler struct {
	run      RunFunc
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that calls run every interval.
func NewScheduler(run RunFunc, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		run:      run,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the loop. A failed run is logged and the loop carries on. It
// returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.runOnce(ctx, 1)

	for cycle := 2; ; cycle++ {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.runOnce(ctx, cycle)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, cycle int) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	err := s.run(ctx)
	switch {
	case err == nil:
		s.logger.Info("run finished", "cycle", cycle, "took", time.Since(start).Round(time.Millisecond))
	case errors.Is(err, context.Canceled):
		s.logger.Info("run interrupted", "cycle", cycle)
	default:
		s.logger.Error("run failed", "cycle", cycle, "error", err)
	}
}
