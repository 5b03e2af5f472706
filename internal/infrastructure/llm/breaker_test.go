package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockMind/internal/domain"
)

type flakyProvider struct {
	calls int
	err   error
}

func (f *flakyProvider) Generate(context.Context, string, domain.GenerationRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "ok", nil
}

func TestBreakerProvider_OpensAfterThreshold(t *testing.T) {
	next := &flakyProvider{err: errors.New("503")}
	b := NewBreakerProvider(next, 3, time.Hour, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.Generate(ctx, "k", domain.GenerationRequest{})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Generate(ctx, "k", domain.GenerationRequest{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, next.calls, "open breaker must not reach the provider")
}

func TestBreakerProvider_SuccessResets(t *testing.T) {
	next := &flakyProvider{err: errors.New("503")}
	b := NewBreakerProvider(next, 2, time.Hour, nil)
	ctx := context.Background()

	_, _ = b.Generate(ctx, "k", domain.GenerationRequest{})
	next.err = nil
	out, err := b.Generate(ctx, "k", domain.GenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	next.err = errors.New("503")
	_, _ = b.Generate(ctx, "k", domain.GenerationRequest{})
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerProvider_IgnoresCancellation(t *testing.T) {
	next := &flakyProvider{err: context.Canceled}
	b := NewBreakerProvider(next, 1, time.Hour, nil)

	for i := 0; i < 3; i++ {
		_, err := b.Generate(context.Background(), "k", domain.GenerationRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
