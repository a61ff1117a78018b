package ratelimit

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"sdnguard/pkg/platform/httputil"
	"sdnguard/pkg/requestcontext"
)

// CostFunc reports how many units a request consumes.
type CostFunc func(r *http.Request) int

// Middleware enforces per-client limits on API routes.
type Middleware struct {
	limiter  *Limiter
	limit    Limit
	logger   *slog.Logger
	metrics  *Metrics
	disabled bool
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithDisabled disables rate limiting entirely.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Middleware) { m.metrics = metrics }
}

// New creates the middleware. Every class shares the same budget shape but
// counts separately.
func New(limiter *Limiter, limit Limit, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		limit:   limit,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit limits requests in class. cost may be nil for a cost of one.
func (m *Middleware) RateLimit(class EndpointClass, cost CostFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			units := 1
			if cost != nil {
				// A request larger than the window takes the whole window
				// instead of being rejected forever.
				units = min(max(cost(r), 1), m.limit.RequestsPerWindow)
			}

			result, degraded := m.limiter.Check(ctx, Key(class, requestcontext.ClientIP(ctx)), units, m.limit)
			m.metrics.IncrementDecision(class, result.Allowed)

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}

			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"class", class,
					"cost", units,
				)
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BulkCost charges one unit per entry of the customerNames array. The body
// is restored for the handler.
func BulkCost(r *http.Request) int {
	if r.Body == nil {
		return 1
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, httputil.MaxBodyBytes+1))
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return 1
	}
	names := gjson.GetBytes(body, "customerNames")
	if !names.IsArray() {
		return 1
	}
	return max(len(names.Array()), 1)
}

func addRateLimitHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	if !result.ResetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, result Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests from this IP address. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
