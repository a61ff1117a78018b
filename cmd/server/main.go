package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sdnguard/internal/platform/config"
	"sdnguard/internal/platform/httpserver"
	"sdnguard/internal/platform/logger"
	platformmetrics "sdnguard/internal/platform/metrics"
	"sdnguard/internal/platform/redis"
	"sdnguard/internal/ratelimit"
	"sdnguard/internal/sanctions/events"
	"sdnguard/internal/sanctions/handler"
	sanctionsmetrics "sdnguard/internal/sanctions/metrics"
	"sdnguard/internal/sanctions/screening"
	"sdnguard/internal/sanctions/watchlist"
	"sdnguard/pkg/platform/middleware/metadata"
	"sdnguard/pkg/platform/middleware/requestid"
	"sdnguard/pkg/platform/middleware/requesttime"
)

const shutdownTimeout = 15 * time.Second

// main wires dependencies, serves the HTTP API, and shuts down on SIGINT/SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	router, cleanup, err := newRouter(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer cleanup()

	srv := httpserver.New(cfg.Addr, router, cfg.Provider.Timeout)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting sdnguard", "addr", cfg.Addr, "provider", cfg.Provider.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter builds the API and returns a cleanup func that flushes events
// and closes Redis.
func newRouter(ctx context.Context, cfg config.Server, log *slog.Logger, reg *prometheus.Registry) (http.Handler, func(), error) {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sanctionsMetrics := sanctionsmetrics.NewWithRegisterer(reg)

	client := watchlist.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout,
		watchlist.WithLogger(log),
		watchlist.WithMetrics(sanctionsMetrics),
		watchlist.WithDefaultLimit(cfg.Provider.DefaultLimit),
		watchlist.WithLenientPayload(cfg.Provider.LenientPayload),
	)
	svc, err := screening.New(client,
		screening.WithLogger(log),
		screening.WithMetrics(sanctionsMetrics),
		screening.WithMaxInFlight(cfg.Screening.MaxInFlight),
	)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := newPublisher(cfg.Events, log, sanctionsMetrics)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		// The limiter degrades to in-memory counting rather than refusing to start.
		log.Warn("redis unavailable, rate limiting is per instance", "error", err)
		redisClient = nil
	}

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := publisher.Close(closeCtx); err != nil {
			log.Warn("event publisher close failed", "error", err)
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	handlerOpts := []handler.Option{
		handler.WithPublisher(publisher),
		handler.WithMaxBatchSize(cfg.Screening.MaxBatchSize),
		handler.WithBulkDeadline(httpserver.HandlerDeadline(cfg.Provider.Timeout)),
		handler.WithHealthCheck("provider", client),
		handler.WithRouteMiddleware(rateLimits(cfg.RateLimit, redisClient, log, reg)),
	}
	if redisClient != nil {
		handlerOpts = append(handlerOpts, handler.WithHealthCheck("redis", redisClient))
	}
	h := handler.New(client, svc, log, handlerOpts...)

	clientIPs, err := metadata.NewResolver(cfg.TrustedProxies)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(clientIPs.Middleware)
	r.Use(platformmetrics.New(reg).Middleware)
	h.RegisterHealth(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	h.Register(r)
	return r, cleanup, nil
}

func newPublisher(cfg config.EventsConfig, log *slog.Logger, m *sanctionsmetrics.Metrics) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return events.NoopPublisher{}, nil
	}
	return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic,
		events.WithLogger(log),
		events.WithMetrics(m),
	)
}

func rateLimits(cfg config.RateLimitConfig, rc *redis.Client, log *slog.Logger, reg prometheus.Registerer) handler.RouteMiddleware {
	var primary ratelimit.Store
	if rc != nil {
		primary = ratelimit.NewRedisStore(rc.Client)
	}
	m := ratelimit.NewMetrics(reg)
	limiter := ratelimit.NewLimiter(primary,
		ratelimit.WithLimiterLogger(log),
		ratelimit.WithLimiterMetrics(m),
	)
	mw := ratelimit.New(limiter,
		ratelimit.Limit{RequestsPerWindow: cfg.RequestsPerWindow, Window: cfg.Window},
		log,
		ratelimit.WithDisabled(cfg.Disabled),
		ratelimit.WithMetrics(m),
	)
	return handler.RouteMiddleware{
		Lookup: mw.RateLimit(ratelimit.ClassLookup, nil),
		Check:  mw.RateLimit(ratelimit.ClassScreening, nil),
		Bulk:   mw.RateLimit(ratelimit.ClassScreening, ratelimit.BulkCost),
	}
}
