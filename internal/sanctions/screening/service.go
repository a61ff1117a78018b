package screening

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"sdnguard/internal/sanctions/metrics"
	"sdnguard/internal/sanctions/models"
	"sdnguard/internal/sanctions/watchlist"
)

// DefaultMaxInFlight bounds concurrent provider lookups per batch.
const DefaultMaxInFlight = 10

const (
	// ErrMsgEmptyBatch is reported when a batch carries no names.
	ErrMsgEmptyBatch = "customerNames must be a non-empty array"
	// ErrMsgNameRequired is reported for blank customer names.
	ErrMsgNameRequired = "customerName is required"
)

// WatchlistClient is the provider lookup the screening service depends on.
// Implementations report failures inside the result.
type WatchlistClient interface {
	Lookup(ctx context.Context, q watchlist.LookupQuery) models.LookupResult
}

// Service screens names against the watchlist. Evaluate and BulkEvaluate
// never return errors; failures are carried in their results.
type Service struct {
	client      WatchlistClient
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	maxInFlight int
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMaxInFlight bounds how many lookups a batch runs at once.
// Non-positive values keep the default.
func WithMaxInFlight(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxInFlight = n
		}
	}
}

// New creates a screening service over client.
func New(client WatchlistClient, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("watchlist client is required")
	}
	s := &Service{
		client:      client,
		logger:      slog.Default(),
		tracer:      otel.Tracer("sdnguard/screening"),
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MaxInFlight reports the configured batch concurrency bound.
func (s *Service) MaxInFlight() int {
	return s.maxInFlight
}
