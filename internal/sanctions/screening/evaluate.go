package screening

import (
	"context"
	"fmt"
	"strings"

	"sdnguard/internal/sanctions/models"
	"sdnguard/internal/sanctions/watchlist"
)

// Evaluate screens one customer name. fuzzy is passed to the provider as
// a matching-mode hint. Any match makes the customer CRITICAL; a failed
// lookup leaves the verdict UNKNOWN.
func (s *Service) Evaluate(ctx context.Context, customerName string, fuzzy bool) (result models.CustomerCheckResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "screening panicked", "panic", r)
			result = models.FailedCheck(customerName, fmt.Sprintf("sanctions screening failed: %v", r))
		}
		s.metrics.IncrementRisk(result.RiskLevel.String())
	}()

	// An empty name would ask the provider for an unfiltered page.
	if strings.TrimSpace(customerName) == "" {
		return models.FailedCheck(customerName, ErrMsgNameRequired)
	}

	lookup := s.client.Lookup(ctx, watchlist.LookupQuery{Name: customerName}.WithFuzzy(fuzzy))
	return models.CheckFromLookup(customerName, lookup)
}
