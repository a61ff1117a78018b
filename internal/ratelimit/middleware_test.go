package ratelimit

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdnguard/pkg/platform/circuit"
	pkgtestutil "sdnguard/pkg/testutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}

func newMiddleware(t *testing.T, limiter *Limiter, requests int, opts ...Option) *Middleware {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(limiter, Limit{RequestsPerWindow: requests, Window: time.Minute}, logger, opts...)
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	mw := newMiddleware(t, NewLimiter(nil), 2, WithMetrics(metrics))
	h := mw.RateLimit(ClassLookup, nil)(okHandler())

	for range 2 {
		req := pkgtestutil.WithClientIP(httptest.NewRequest(http.MethodGet, "/sdn?name=x", nil), "203.0.113.7")
		rr := pkgtestutil.DoRequest(h, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Remaining"))
	}

	req := pkgtestutil.WithClientIP(httptest.NewRequest(http.MethodGet, "/sdn?name=x", nil), "203.0.113.7")
	rr := pkgtestutil.DoRequest(h, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	body := pkgtestutil.UnmarshalResponse[ExceededResponse](t, rr)
	assert.Equal(t, "rate_limit_exceeded", body.Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Decisions.WithLabelValues("lookup", "rejected")))

	other := pkgtestutil.WithClientIP(httptest.NewRequest(http.MethodGet, "/sdn", nil), "198.51.100.1")
	assert.Equal(t, http.StatusOK, pkgtestutil.DoRequest(h, other).Code, "other clients unaffected")
}

func TestRateLimitBulkCostsOnePerName(t *testing.T) {
	mw := newMiddleware(t, NewLimiter(nil), 3)
	h := mw.RateLimit(ClassScreening, BulkCost)(okHandler())

	body := `{"customerNames":["a","b"]}`
	req := pkgtestutil.NewRequestWithBody(t, http.MethodPost, "/screening/bulk", body)
	rr := pkgtestutil.DoRequest(h, pkgtestutil.WithClientIP(req, "203.0.113.7"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, body, rr.Body.String(), "body is restored for the handler")
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))

	body = `{"customerNames":["c","d"]}`
	req = pkgtestutil.NewRequestWithBody(t, http.MethodPost, "/screening/bulk", body)
	rr = pkgtestutil.DoRequest(h, pkgtestutil.WithClientIP(req, "203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code, "two names exceed the one unit left")
}

func TestRateLimitBatchLargerThanWindowTakesWholeWindow(t *testing.T) {
	mw := newMiddleware(t, NewLimiter(nil), 3)
	h := mw.RateLimit(ClassScreening, BulkCost)(okHandler())

	body := `{"customerNames":["a","b","c","d","e"]}`
	req := pkgtestutil.NewRequestWithBody(t, http.MethodPost, "/screening/bulk", body)
	rr := pkgtestutil.DoRequest(h, pkgtestutil.WithClientIP(req, "203.0.113.7"))
	require.Equal(t, http.StatusOK, rr.Code, "a fresh window admits a batch above the limit")
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	req = pkgtestutil.NewRequestWithBody(t, http.MethodPost, "/screening/bulk", `{"customerNames":["f"]}`)
	rr = pkgtestutil.DoRequest(h, pkgtestutil.WithClientIP(req, "203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimitMarksDegradedResponses(t *testing.T) {
	limiter := NewLimiter(&flakyStore{err: errors.New("down")},
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(1))),
	)
	h := newMiddleware(t, limiter, 10).RateLimit(ClassLookup, nil)(okHandler())

	rr := pkgtestutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/sdn", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "degraded", rr.Header().Get("X-RateLimit-Status"))
}

func TestRateLimitDisabled(t *testing.T) {
	h := newMiddleware(t, NewLimiter(nil), 0, WithDisabled(true)).RateLimit(ClassLookup, nil)(okHandler())

	rr := pkgtestutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/sdn", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestBulkCost(t *testing.T) {
	cases := map[string]int{
		`{"customerNames":["a","b","c"]}`: 3,
		`{"customerNames":[]}`:            1,
		`{"customerNames":"a"}`:           1,
		`not json`:                        1,
	}
	for body, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/screening/bulk", strings.NewReader(body))
		assert.Equal(t, want, BulkCost(req), body)
	}
}
