package models

// LookupResult is the outcome of one provider query. A successful result
// always has Count == len(Data); a failed one has no data and an Error.
type LookupResult struct {
	Success bool              `json:"success"`
	Data    []WatchlistRecord `json:"data"`
	Count   int               `json:"count"`
	Error   string            `json:"error,omitempty"`
}

// NewLookupResult builds a successful result over records.
func NewLookupResult(records []WatchlistRecord) LookupResult {
	if records == nil {
		records = []WatchlistRecord{}
	}
	return LookupResult{Success: true, Data: records, Count: len(records)}
}

// FailedLookup builds a failed result carrying reason.
func FailedLookup(reason string) LookupResult {
	return LookupResult{Success: false, Data: []WatchlistRecord{}, Count: 0, Error: reason}
}

// CustomerCheckResult is the screening verdict for one name. IsSDN is nil
// exactly when the check could not be completed, in which case Error is set
// and RiskLevel is RiskUnknown.
type CustomerCheckResult struct {
	CustomerName string            `json:"customerName"`
	IsSDN        *bool             `json:"isSDN"`
	MatchCount   int               `json:"matchCount"`
	Matches      []WatchlistRecord `json:"matches"`
	RiskLevel    RiskLevel         `json:"riskLevel"`
	Error        string            `json:"error,omitempty"`
}

// CheckFromLookup interprets a lookup outcome for customerName.
func CheckFromLookup(customerName string, lookup LookupResult) CustomerCheckResult {
	if !lookup.Success {
		return FailedCheck(customerName, lookup.Error)
	}
	matches := lookup.Data
	if matches == nil {
		matches = []WatchlistRecord{}
	}
	flagged := len(matches) > 0
	risk := RiskClear
	if flagged {
		risk = RiskCritical
	}
	return CustomerCheckResult{
		CustomerName: customerName,
		IsSDN:        &flagged,
		MatchCount:   len(matches),
		Matches:      matches,
		RiskLevel:    risk,
	}
}

// FailedCheck builds an undetermined result. An empty reason is replaced so
// that a nil IsSDN is always explained.
func FailedCheck(customerName, reason string) CustomerCheckResult {
	if reason == "" {
		reason = "sanctions lookup failed"
	}
	return CustomerCheckResult{
		CustomerName: customerName,
		IsSDN:        nil,
		MatchCount:   0,
		Matches:      []WatchlistRecord{},
		RiskLevel:    RiskUnknown,
		Error:        reason,
	}
}

// Summary counts results by risk level.
type Summary struct {
	Critical int `json:"critical"`
	Clear    int `json:"clear"`
	Unknown  int `json:"unknown"`
}

// BulkCheckResult aggregates a batch of checks. Results keep input order.
type BulkCheckResult struct {
	Success      bool                  `json:"success"`
	TotalChecked int                   `json:"totalChecked"`
	FlaggedCount int                   `json:"flaggedCount"`
	Results      []CustomerCheckResult `json:"results"`
	Summary      Summary               `json:"summary"`
	Error        string                `json:"error,omitempty"`
}

// NewBulkCheckResult aggregates results, which must already be in input order.
func NewBulkCheckResult(results []CustomerCheckResult) BulkCheckResult {
	if results == nil {
		results = []CustomerCheckResult{}
	}
	var summary Summary
	for _, r := range results {
		switch r.RiskLevel {
		case RiskCritical:
			summary.Critical++
		case RiskClear:
			summary.Clear++
		default:
			summary.Unknown++
		}
	}
	return BulkCheckResult{
		Success:      true,
		TotalChecked: len(results),
		FlaggedCount: summary.Critical,
		Results:      results,
		Summary:      summary,
	}
}

// RejectedBatch is the result for a batch that failed input validation.
func RejectedBatch(reason string) BulkCheckResult {
	return BulkCheckResult{
		Success: false,
		Results: []CustomerCheckResult{},
		Error:   reason,
	}
}

// UnknownNames returns the input positions and names of undetermined results.
func (b BulkCheckResult) UnknownNames() ([]int, []string) {
	var idx []int
	var names []string
	for i, r := range b.Results {
		if r.RiskLevel == RiskUnknown {
			idx = append(idx, i)
			names = append(names, r.CustomerName)
		}
	}
	return idx, names
}

// Merge replaces the results at idx with retried and recomputes the totals.
// retried must be index-aligned with idx.
func (b BulkCheckResult) Merge(idx []int, retried []CustomerCheckResult) BulkCheckResult {
	merged := make([]CustomerCheckResult, len(b.Results))
	copy(merged, b.Results)
	for i, pos := range idx {
		if i < len(retried) && pos >= 0 && pos < len(merged) {
			merged[pos] = retried[i]
		}
	}
	return NewBulkCheckResult(merged)
}
