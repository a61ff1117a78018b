package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepThreshold = 10_000

// MemoryStore is a per-process token bucket store. It is the fallback when
// Redis is unavailable and the only store when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
	now     func() time.Time
}

type memoryBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*memoryBucket),
		now:     time.Now,
	}
}

// AllowN admits cost tokens for key. The bucket refills at
// RequestsPerWindow per Window with a burst of RequestsPerWindow.
func (s *MemoryStore) AllowN(_ context.Context, key string, cost int, limit Limit) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now, limit.Window)

	b := s.buckets[key]
	if b == nil {
		every := limit.Window / time.Duration(max(limit.RequestsPerWindow, 1))
		b = &memoryBucket{limiter: rate.NewLimiter(rate.Every(every), limit.RequestsPerWindow)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, cost)
	tokens := b.limiter.TokensAt(now)
	missing := float64(limit.RequestsPerWindow) - tokens
	resetAt := now
	if missing > 0 {
		resetAt = now.Add(time.Duration(missing / float64(b.limiter.Limit()) * float64(time.Second)))
	}

	result := Result{
		Allowed:   allowed,
		Limit:     limit.RequestsPerWindow,
		Remaining: max(int(tokens), 0),
		ResetAt:   resetAt,
	}
	if !allowed {
		wait := limit.Window
		if cost <= limit.RequestsPerWindow {
			need := float64(cost) - tokens
			wait = time.Duration(need / float64(b.limiter.Limit()) * float64(time.Second))
		}
		result.RetryAfter = retryAfterSeconds(now.Add(wait), now)
	}
	return result, nil
}

// sweep drops idle buckets once the map grows large. Caller holds s.mu.
func (s *MemoryStore) sweep(now time.Time, idle time.Duration) {
	if len(s.buckets) < sweepThreshold {
		return
	}
	for k, b := range s.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(s.buckets, k)
		}
	}
}
