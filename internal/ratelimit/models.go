package ratelimit

import (
	"strings"
	"time"
)

// EndpointClass groups endpoints that share a request budget.
type EndpointClass string

const (
	// ClassLookup covers raw watchlist queries (GET /sdn).
	ClassLookup EndpointClass = "lookup"
	// ClassScreening covers single and bulk screening; bulk costs one unit per name.
	ClassScreening EndpointClass = "screening"
)

// Limit is a request budget per window.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// ExceededResponse is the body of a 429 response.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// Key builds the counter key for a client in a class.
func Key(class EndpointClass, clientIP string) string {
	return "ratelimit:" + string(class) + ":" + sanitizeKeySegment(clientIP)
}

// sanitizeKeySegment escapes the key delimiter so a crafted identifier
// cannot address another bucket.
func sanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

func retryAfterSeconds(resetAt, now time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
