package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"StockMind/internal/domain"
	"StockMind/internal/metrics"
	"StockMind/internal/ports"
)

// UserRunner processes a single user.
type UserRunner interface {
	Process(ctx context.Context, user domain.UserWork) UserResult
}

// OrchestratorDeps wires all driven adapters into the daily run.
type OrchestratorDeps struct {
	Source   ports.RunSource
	Users    UserRunner
	Reporter ports.RunReporter
	Logger   *slog.Logger
	Now      func() time.Time
}

// Orchestrator executes one run over every stored user.
type Orchestrator struct {
	source   ports.RunSource
	users    UserRunner
	reporter ports.RunReporter
	logger   *slog.Logger
	now      func() time.Time

	running atomic.Bool
}

// NewOrchestrator constructs the run entry point.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		source:   deps.Source,
		users:    deps.Users,
		reporter: deps.Reporter,
		logger:   deps.Logger,
		now:      deps.Now,
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Run loads all users in one read and processes them in storage order.
// The only error after startup is a failed bulk load; everything else is
// reported in the summary.
func (o *Orchestrator) Run(ctx context.Context) (domain.RunSummary, error) {
	if !o.running.CompareAndSwap(false, true) {
		metrics.RunsTotal.WithLabelValues("rejected").Inc()
		return domain.RunSummary{}, domain.ErrRunInProgress
	}
	defer o.running.Store(false)

	if o.source == nil || o.users == nil {
		return domain.RunSummary{}, fmt.Errorf("%w: orchestrator is missing its source or user processor", domain.ErrConfiguration)
	}

	summary := domain.RunSummary{StartedAt: o.now(), Errors: []domain.RunError{}}

	users, err := o.source.ListUsersWithTagsAndCatalysts(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		o.logger.Error("bulk load failed", "error", err)
		return domain.RunSummary{}, &domain.BulkLoadError{Err: err}
	}

	o.logger.Info("run started", "users", len(users))

	for i, user := range users {
		if ctx.Err() != nil {
			summary.Errors = append(summary.Errors, domain.RunError{
				Scope:  "run",
				Detail: fmt.Sprintf("run budget exhausted: %d of %d users not attempted", len(users)-i, len(users)),
			})
			break
		}

		res := o.users.Process(ctx, user)
		if res.Skipped {
			continue
		}
		summary.UsersProcessed++
		summary.AssessmentsCreated += res.Created
		if res.Delivered {
			summary.EmailsSent++
		}
		summary.Errors = append(summary.Errors, res.Errors...)
	}

	summary.FinishedAt = o.now()
	summary.Status = domain.RunCompleted
	metrics.RunsTotal.WithLabelValues("completed").Inc()
	metrics.RunDuration.Observe(summary.Duration().Seconds())

	o.logger.Info("run completed",
		"users_processed", summary.UsersProcessed,
		"assessments_created", summary.AssessmentsCreated,
		"emails_sent", summary.EmailsSent,
		"errors", len(summary.Errors),
		"duration", summary.Duration().String(),
	)

	if o.reporter != nil {
		if err := o.reporter.PublishRunSummary(context.WithoutCancel(ctx), summary); err != nil {
			o.logger.Warn("run summary not published", "error", err)
		}
	}

	return summary, nil
}

// Running reports whether a run is in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}
