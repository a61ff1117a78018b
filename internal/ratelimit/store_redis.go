package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sdnguard/pkg/platform/sentinel"
)

// fixedWindowScript admits cost units when they fit in the current window.
// Returns {allowed, count, ttl_ms}.
var fixedWindowScript = redis.NewScript(`
local cost = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current + cost > limit then
  return {0, current, redis.call("PTTL", KEYS[1])}
end
current = redis.call("INCRBY", KEYS[1], cost)
if current == cost then
  redis.call("PEXPIRE", KEYS[1], ARGV[3])
end
return {1, current, redis.call("PTTL", KEYS[1])}
`)

// RedisStore is a fixed-window counter shared by every API instance.
type RedisStore struct {
	client redis.Scripter
	now    func() time.Time
}

// NewRedisStore creates a store over client.
func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// AllowN admits cost units for key if they fit within limit per window.
func (s *RedisStore) AllowN(ctx context.Context, key string, cost int, limit Limit) (Result, error) {
	res, err := fixedWindowScript.Run(ctx, s.client, []string{key},
		cost, limit.RequestsPerWindow, limit.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit check: %w: %w", sentinel.ErrUnavailable, err)
	}
	if len(res) != 3 {
		return Result{}, fmt.Errorf("redis rate limit check: unexpected reply %v", res)
	}

	now := s.now()
	ttl := time.Duration(res[2]) * time.Millisecond
	if ttl <= 0 {
		ttl = limit.Window
	}
	resetAt := now.Add(ttl)
	count := int(res[1])

	result := Result{
		Allowed:   res[0] == 1,
		Limit:     limit.RequestsPerWindow,
		Remaining: max(limit.RequestsPerWindow-count, 0),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = retryAfterSeconds(resetAt, now)
	}
	return result, nil
}
