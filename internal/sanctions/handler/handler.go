package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sdnguard/internal/sanctions/events"
	"sdnguard/internal/sanctions/models"
	"sdnguard/internal/sanctions/watchlist"
	dErrors "sdnguard/pkg/domain-errors"
	"sdnguard/pkg/platform/httputil"
	"sdnguard/pkg/requestcontext"
)

// DefaultMaxBatchSize caps names per bulk request.
const DefaultMaxBatchSize = 1000

// Watchlist looks up raw provider records.
type Watchlist interface {
	Lookup(ctx context.Context, q watchlist.LookupQuery) models.LookupResult
}

// Screener produces screening verdicts.
type Screener interface {
	Evaluate(ctx context.Context, customerName string, fuzzy bool) models.CustomerCheckResult
	BulkEvaluate(ctx context.Context, names []string) models.BulkCheckResult
}

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler wires sanctions endpoints to the watchlist and screening service.
type Handler struct {
	watchlist    Watchlist
	screener     Screener
	publisher    events.Publisher
	health       map[string]HealthChecker
	logger       *slog.Logger
	maxBatchSize int
	routes       RouteMiddleware
	bulkDeadline time.Duration
}

// RouteMiddleware holds optional per-route middleware, typically rate limits.
type RouteMiddleware struct {
	Lookup func(http.Handler) http.Handler
	Check  func(http.Handler) http.Handler
	Bulk   func(http.Handler) http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithPublisher emits a screening event per screened name.
func WithPublisher(p events.Publisher) Option {
	return func(h *Handler) {
		if p != nil {
			h.publisher = p
		}
	}
}

// WithMaxBatchSize caps names per bulk request.
func WithMaxBatchSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBatchSize = n
		}
	}
}

// WithHealthCheck adds a named dependency to GET /health.
func WithHealthCheck(name string, c HealthChecker) Option {
	return func(h *Handler) {
		if c != nil {
			h.health[name] = c
		}
	}
}

// WithBulkDeadline bounds a bulk request. Names not screened in time come
// back UNKNOWN so the response is still written before the server's write
// deadline.
func WithBulkDeadline(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.bulkDeadline = d
		}
	}
}

// WithRouteMiddleware wraps each sanctions route in its own middleware.
func WithRouteMiddleware(m RouteMiddleware) Option {
	return func(h *Handler) {
		h.routes = m
	}
}

// New constructs a sanctions handler with its dependencies.
func New(wl Watchlist, screener Screener, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		watchlist:    wl,
		screener:     screener,
		publisher:    events.NoopPublisher{},
		health:       map[string]HealthChecker{},
		logger:       logger,
		maxBatchSize: DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts sanctions endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.With(optional(h.routes.Lookup)...).Get("/sdn", h.HandleLookup)
	r.With(optional(h.routes.Check)...).Post("/screening/check", h.HandleCheck)
	r.With(optional(h.routes.Bulk)...).Post("/screening/bulk", h.HandleBulk)
}

func optional(mw func(http.Handler) http.Handler) []func(http.Handler) http.Handler {
	if mw == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{mw}
}

// RegisterHealth mounts GET /health, kept apart so it can bypass rate limiting.
func (h *Handler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.HandleHealth)
}

// HandleLookup handles GET /sdn. Provider failures are reported in the body
// with status 200.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	q, err := parseLookupQuery(r.URL.Query())
	if err != nil {
		h.logger.WarnContext(ctx, "request rejected", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	result := h.watchlist.Lookup(ctx, q)
	h.logger.InfoContext(ctx, "sanctions lookup served",
		"request_id", requestID,
		"success", result.Success,
		"count", result.Count,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleCheck handles POST /screening/check.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result := h.screener.Evaluate(ctx, req.CustomerName, req.Fuzzy())
	h.publisher.Publish(ctx, events.FromCheck(ctx, events.SourceCheck, result))

	h.logger.InfoContext(ctx, "customer screened",
		"request_id", requestID,
		"risk_level", result.RiskLevel,
		"match_count", result.MatchCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleBulk handles POST /screening/bulk. Invalid input is answered with a
// rejected batch result and status 400.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	names, reason := readBulkNames(r, h.maxBatchSize)
	if reason != "" {
		h.logger.WarnContext(ctx, "request rejected", "request_id", requestID, "error", reason)
		httputil.WriteJSON(w, http.StatusBadRequest, models.RejectedBatch(reason))
		return
	}

	screenCtx := ctx
	if h.bulkDeadline > 0 {
		var cancel context.CancelFunc
		screenCtx, cancel = context.WithTimeout(ctx, h.bulkDeadline)
		defer cancel()
	}
	result := h.screener.BulkEvaluate(screenCtx, names)
	h.publisher.Publish(ctx, events.FromBulk(ctx, result)...)

	h.logger.InfoContext(ctx, "bulk screening served",
		"request_id", requestID,
		"total", result.TotalChecked,
		"flagged", result.FlaggedCount,
		"unknown", result.Summary.Unknown,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Dependencies: map[string]string{}}
	for name, checker := range h.health {
		if err := checker.Health(ctx); err != nil {
			h.logger.WarnContext(ctx, "dependency unhealthy", "dependency", name, "error", err)
			resp.Dependencies[name] = err.Error()
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[name] = "ok"
	}

	if resp.Status != "ok" {
		httputil.WriteJSON(w, dErrors.HTTPStatus(dErrors.CodeUnavailable), resp)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
