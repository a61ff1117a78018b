package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sdnguard/internal/sanctions/models"
	"sdnguard/pkg/requestcontext"
)

// Source identifies which operation produced an event.
type Source string

const (
	SourceCheck Source = "check"
	SourceBulk  Source = "bulk"
)

// ScreeningEvent announces the verdict for one screened name. It is a
// notification, not a record of truth; consumers must tolerate gaps.
type ScreeningEvent struct {
	ID           string           `json:"id"`
	RequestID    string           `json:"request_id,omitempty"`
	Source       Source           `json:"source"`
	CustomerName string           `json:"customer_name"`
	RiskLevel    models.RiskLevel `json:"risk_level"`
	MatchCount   int              `json:"match_count"`
	MatchedIDs   []string         `json:"matched_ids"`
	Error        string           `json:"error,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// FromCheck builds the event for a single verdict.
func FromCheck(ctx context.Context, source Source, result models.CustomerCheckResult) ScreeningEvent {
	ids := make([]string, 0, len(result.Matches))
	for _, m := range result.Matches {
		ids = append(ids, m.ID)
	}
	return ScreeningEvent{
		ID:           uuid.NewString(),
		RequestID:    requestcontext.RequestID(ctx),
		Source:       source,
		CustomerName: result.CustomerName,
		RiskLevel:    result.RiskLevel,
		MatchCount:   result.MatchCount,
		MatchedIDs:   ids,
		Error:        result.Error,
		OccurredAt:   requestcontext.Now(ctx),
	}
}

// FromBulk builds one event per result, in input order. A rejected batch
// screened nothing and yields no events.
func FromBulk(ctx context.Context, result models.BulkCheckResult) []ScreeningEvent {
	if !result.Success {
		return nil
	}
	out := make([]ScreeningEvent, 0, len(result.Results))
	for _, r := range result.Results {
		out = append(out, FromCheck(ctx, SourceBulk, r))
	}
	return out
}
