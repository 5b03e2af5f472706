package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"StockMind/internal/ports"
)

// CronScheduler fires a job on a standard five-field cron expression
// evaluated in a fixed timezone.
type CronScheduler struct {
	spec     string
	location *time.Location

	mu   sync.Mutex
	cron *cron.Cron
	done chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for a cron expression in loc (UTC when nil).
func NewCronScheduler(spec string, loc *time.Location) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, location: loc}
}

// Next returns the first fire time strictly after from.
func (c *CronScheduler) Next(from time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(c.spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron %q: %w", c.spec, err)
	}
	return schedule.Next(from.In(c.location)), nil
}

// Start registers job and begins firing until Stop or ctx is done.
// Calling Start on a running scheduler is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.location))
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now().In(c.location)) }); err != nil {
		return fmt.Errorf("parse cron %q: %w", c.spec, err)
	}
	runner.Start()

	done := make(chan struct{})
	c.cron, c.done = runner, done
	go func() {
		select {
		case <-ctx.Done():
			<-runner.Stop().Done()
		case <-done:
		}
	}()

	return nil
}

// Stop halts firing and waits for a running job to return, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner, done := c.cron, c.done
	c.cron, c.done = nil, nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}
	close(done)

	select {
	case <-runner.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
