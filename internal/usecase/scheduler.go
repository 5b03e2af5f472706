package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

// Runner is anything that executes one daily run.
type Runner interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

// Scheduler wires the cron-like driver with the daily run.
type Scheduler struct {
	driver     ports.Scheduler
	runner     Runner
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner Runner, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, runner: runner, runTimeout: runTimeout, logger: logger}
}

// Start registers the run with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Info("scheduled run triggered", "at", trigger)
		runCtx := ctx
		if s.runTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
			defer cancel()
		}

		if _, err := s.runner.Run(runCtx); err != nil {
			if errors.Is(err, domain.ErrRunInProgress) {
				s.logger.Warn("scheduled run skipped", "reason", err)
				return
			}
			s.logger.Error("scheduled run failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
