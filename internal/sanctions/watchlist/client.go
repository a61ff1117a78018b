package watchlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sdnguard/internal/sanctions/metrics"
	"sdnguard/internal/sanctions/models"
)

const (
	lookupPath = "/getsdn"

	// maxPayloadBytes caps how much of a provider response is read.
	maxPayloadBytes = 32 << 20
)

// Client queries the remote sanctions provider. It performs exactly one
// HTTP request per Lookup and never retries or caches.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	defaultLimit int
	lenient      bool
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout bounds each lookup.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithDefaultLimit sets the limit sent when a query carries none.
func WithDefaultLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.defaultLimit = limit
		}
	}
}

// WithLenientPayload treats malformed payloads as zero records instead of failing.
func WithLenientPayload(lenient bool) Option {
	return func(c *Client) { c.lenient = lenient }
}

// NewClient creates a provider client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		defaultLimit: DefaultLimit,
		logger:       slog.Default(),
		tracer:       otel.Tracer("sdnguard/watchlist"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup fetches the records matching q. Failures, including panics on the
// provider path, are reported in the result and never returned as errors.
func (c *Client) Lookup(ctx context.Context, q LookupQuery) (result models.LookupResult) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "watchlist.lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Bool("sdn.query.has_name", strings.TrimSpace(q.Name) != ""),
			attribute.String("sdn.query.country", q.Country),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			perr := newProviderError(ErrorInternal,
				fmt.Sprintf("sanctions provider request failed: %v", r), nil)
			result = c.fail(ctx, span, perr, start)
		}
	}()

	records, err := c.fetch(ctx, q)
	if err != nil {
		return c.fail(ctx, span, err, start)
	}

	span.SetAttributes(attribute.Int("sdn.result.count", len(records)))
	c.metrics.ObserveLookup("ok", time.Since(start))
	c.logger.DebugContext(ctx, "sanctions lookup completed",
		"count", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return models.NewLookupResult(records)
}

// Health checks that the provider answers a minimal query.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.fetch(ctx, LookupQuery{Limit: 1})
	return err
}

func (c *Client) fail(ctx context.Context, span trace.Span, err error, start time.Time) models.LookupResult {
	category := CategoryOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(category))
	c.metrics.ObserveLookup(string(category), time.Since(start))
	c.logger.WarnContext(ctx, "sanctions lookup failed",
		"category", category,
		"retryable", IsRetryable(err),
		"error", err,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return models.FailedLookup(err.Error())
}

func (c *Client) fetch(ctx context.Context, q LookupQuery) ([]models.WatchlistRecord, error) {
	endpoint := c.baseURL + lookupPath + "?" + q.values(c.defaultLimit).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newProviderError(ErrorInternal, "sanctions provider request failed: "+err.Error(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		perr := newProviderError(categoryForStatus(resp.StatusCode),
			strings.TrimSpace(fmt.Sprintf("sanctions provider returned HTTP %d %s",
				resp.StatusCode, http.StatusText(resp.StatusCode))), nil)
		perr.StatusCode = resp.StatusCode
		return nil, perr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, transportError(err)
	}
	return parseRecords(body, c.lenient)
}

func transportError(err error) *ProviderError {
	category := ErrorProviderOutage
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		category = ErrorTimeout
	} else if errors.Is(err, context.Canceled) {
		category = ErrorInternal
	}
	return newProviderError(category, "sanctions provider request failed: "+err.Error(), err)
}
