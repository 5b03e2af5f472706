package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"StockMind/internal/domain"
	"StockMind/internal/metrics"
	"StockMind/internal/ports"
)

// BreakerProvider stops calling a provider after threshold consecutive
// failures and fails fast until cooldown has passed.
type BreakerProvider struct {
	next ports.GenerationProvider
	cb   *gobreaker.CircuitBreaker
}

var _ ports.GenerationProvider = (*BreakerProvider)(nil)

// NewBreakerProvider wraps next. threshold must be positive.
func NewBreakerProvider(next ports.GenerationProvider, threshold uint32, cooldown time.Duration, logger *slog.Logger) *BreakerProvider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generation",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return &BreakerProvider{next: next, cb: cb}
}

// Generate forwards to the wrapped provider unless the breaker is open.
func (b *BreakerProvider) Generate(ctx context.Context, credential string, req domain.GenerationRequest) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Generate(ctx, credential, req)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State exposes the breaker state.
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
