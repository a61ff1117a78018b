package ratelimit

import (
	"context"
	"log/slog"

	"sdnguard/pkg/platform/circuit"
)

// Store counts requests against a limit.
type Store interface {
	AllowN(ctx context.Context, key string, cost int, limit Limit) (Result, error)
}

// Limiter checks a primary store, switching to an in-memory fallback while
// the breaker is open. With no primary it uses the fallback alone.
type Limiter struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *Metrics
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

func WithLimiterLogger(logger *slog.Logger) LimiterOption {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func WithLimiterMetrics(m *Metrics) LimiterOption {
	return func(l *Limiter) { l.metrics = m }
}

// WithBreaker replaces the default breaker guarding the primary store.
func WithBreaker(b *circuit.Breaker) LimiterOption {
	return func(l *Limiter) {
		if b != nil {
			l.breaker = b
		}
	}
}

// NewLimiter builds a limiter. primary may be nil.
func NewLimiter(primary Store, opts ...LimiterOption) *Limiter {
	l := &Limiter{
		primary:  primary,
		fallback: NewMemoryStore(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.breaker == nil {
		l.breaker = circuit.New("ratelimit-redis", circuit.WithOnStateChange(l.onStateChange))
	}
	return l
}

// Check admits cost units for key. degraded is true when the answer came
// from the fallback because the primary is failing. A primary error before
// the breaker opens fails open.
func (l *Limiter) Check(ctx context.Context, key string, cost int, limit Limit) (result Result, degraded bool) {
	if l.primary == nil {
		res, _ := l.fallback.AllowN(ctx, key, cost, limit)
		return res, false
	}

	res, err := l.primary.AllowN(ctx, key, cost, limit)
	if err != nil {
		useFallback, _ := l.breaker.RecordFailure()
		if useFallback {
			fb, _ := l.fallback.AllowN(ctx, key, cost, limit)
			return fb, true
		}
		l.logger.WarnContext(ctx, "rate limit store failed, allowing request", "error", err)
		return Result{Allowed: true, Limit: limit.RequestsPerWindow, Remaining: limit.RequestsPerWindow}, false
	}

	if usePrimary, _ := l.breaker.RecordSuccess(); !usePrimary {
		fb, _ := l.fallback.AllowN(ctx, key, cost, limit)
		return fb, true
	}
	return res, false
}

func (l *Limiter) onStateChange(name string, from, to circuit.State) {
	l.logger.Warn("rate limit circuit changed state",
		"breaker", name,
		"from", from.String(),
		"to", to.String(),
	)
	l.metrics.SetDegraded(to == circuit.StateOpen)
}
