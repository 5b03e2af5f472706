package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"StockMind/internal/ports"
)

// DefaultMinInterval is the spacing kept between generation calls.
const DefaultMinInterval = 4 * time.Second

// FixedGate grants one slot at a time and keeps at least interval between
// the starts of consecutive slots. The limiter holds a single token, so idle
// time never turns into a burst.
type FixedGate struct {
	interval time.Duration
	limiter  *rate.Limiter
	clock    clockwork.Clock
}

var _ ports.RateGate = (*FixedGate)(nil)

// NewFixedGate builds a gate; a non-positive interval disables pacing.
// A nil clock means the wall clock.
func NewFixedGate(interval time.Duration, clock clockwork.Clock) *FixedGate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &FixedGate{
		interval: interval,
		limiter:  rate.NewLimiter(limit, 1),
		clock:    clock,
	}
}

// AwaitSlot blocks until the interval since the previous grant has elapsed.
// Concurrent callers get consecutive slots in reservation order.
func (g *FixedGate) AwaitSlot(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := g.clock.Now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("rate gate: reservation refused")
	}

	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}

	timer := g.clock.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		r.CancelAt(g.clock.Now())
		return ctx.Err()
	}
}

// Interval returns the configured spacing.
func (g *FixedGate) Interval() time.Duration {
	return g.interval
}
