package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sdnguard/pkg/platform/circuit"
)

type flakyStore struct {
	err   error
	calls int
}

func (s *flakyStore) AllowN(_ context.Context, _ string, _ int, limit Limit) (Result, error) {
	s.calls++
	if s.err != nil {
		return Result{}, s.err
	}
	return Result{Allowed: true, Limit: limit.RequestsPerWindow, Remaining: 42}, nil
}

func TestLimiterFallsBackWhenPrimaryKeepsFailing(t *testing.T) {
	ctx := context.Background()
	limit := Limit{RequestsPerWindow: 1, Window: time.Minute}
	primary := &flakyStore{err: errors.New("connection refused")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	limiter := NewLimiter(primary,
		WithLimiterLogger(logger),
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(2))),
	)

	res, degraded := limiter.Check(ctx, "k", 1, limit)
	assert.True(t, res.Allowed, "first failure fails open")
	assert.False(t, degraded)

	res, degraded = limiter.Check(ctx, "k", 1, limit)
	assert.True(t, degraded, "breaker opened")
	assert.True(t, res.Allowed, "fallback has a fresh bucket")

	res, degraded = limiter.Check(ctx, "k", 1, limit)
	assert.True(t, degraded)
	assert.False(t, res.Allowed, "fallback enforces the limit")

	primary.err = nil
	_, degraded = limiter.Check(ctx, "k2", 1, limit)
	assert.True(t, degraded, "still recovering after one success")

	res, degraded = limiter.Check(ctx, "k2", 1, limit)
	assert.False(t, degraded, "breaker closed after two successes")
	assert.Equal(t, 42, res.Remaining)
}

func TestLimiterWithoutPrimaryUsesMemory(t *testing.T) {
	limiter := NewLimiter(nil)
	limit := Limit{RequestsPerWindow: 1, Window: time.Minute}

	res, degraded := limiter.Check(context.Background(), "k", 1, limit)
	assert.True(t, res.Allowed)
	assert.False(t, degraded)

	res, _ = limiter.Check(context.Background(), "k", 1, limit)
	assert.False(t, res.Allowed)
}
