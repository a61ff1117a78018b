package screening

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"sdnguard/internal/sanctions/models"
)

// BulkEvaluate screens every name with fuzzy matching enabled and returns
// the results in input order. One name failing never affects the others.
// An empty batch is rejected without contacting the provider.
func (s *Service) BulkEvaluate(ctx context.Context, names []string) models.BulkCheckResult {
	if len(names) == 0 {
		return models.RejectedBatch(ErrMsgEmptyBatch)
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "screening.bulk",
		trace.WithAttributes(attribute.Int("screening.batch_size", len(names))),
	)
	defer span.End()

	results := make([]models.CustomerCheckResult, len(names))

	// Plain group: a failed name must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(s.maxInFlight)
	for i, name := range names {
		g.Go(func() error {
			results[i] = s.Evaluate(ctx, name, true)
			return nil
		})
	}
	_ = g.Wait()

	bulk := models.NewBulkCheckResult(results)
	span.SetAttributes(
		attribute.Int("screening.flagged", bulk.FlaggedCount),
		attribute.Int("screening.unknown", bulk.Summary.Unknown),
	)
	s.metrics.ObserveBatch(len(names), time.Since(start))
	s.logger.InfoContext(ctx, "bulk screening completed",
		"total", bulk.TotalChecked,
		"critical", bulk.Summary.Critical,
		"clear", bulk.Summary.Clear,
		"unknown", bulk.Summary.Unknown,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return bulk
}
