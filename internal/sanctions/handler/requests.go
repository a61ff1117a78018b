package handler

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"sdnguard/internal/sanctions/watchlist"
	dErrors "sdnguard/pkg/domain-errors"
)

const maxNameLength = 512

// CheckRequest is the HTTP request body for POST /screening/check.
type CheckRequest struct {
	CustomerName string `json:"customerName"`
	FuzzyMatch   *bool  `json:"fuzzyMatch"`
}

// Validate implements httputil.Validatable.
func (r *CheckRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if utf8.RuneCountInString(r.CustomerName) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "customerName must be at most 512 characters")
	}
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	if r.CustomerName == "" {
		return dErrors.New(dErrors.CodeValidation, "customerName is required")
	}
	return nil
}

// Fuzzy returns the requested matching mode, defaulting to fuzzy.
func (r *CheckRequest) Fuzzy() bool {
	return r.FuzzyMatch == nil || *r.FuzzyMatch
}

// parseLookupQuery reads GET /sdn query parameters.
func parseLookupQuery(values url.Values) (watchlist.LookupQuery, error) {
	q := watchlist.LookupQuery{
		Name:    strings.TrimSpace(values.Get("name")),
		Country: strings.TrimSpace(values.Get("country")),
	}
	if utf8.RuneCountInString(q.Name) > maxNameLength {
		return q, dErrors.New(dErrors.CodeValidation, "name must be at most 512 characters")
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return q, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
		}
		q.Limit = limit
	}
	if raw := strings.TrimSpace(values.Get("fuzzy")); raw != "" {
		fuzzy, err := strconv.ParseBool(raw)
		if err != nil {
			return q, dErrors.New(dErrors.CodeValidation, "fuzzy must be true or false")
		}
		q = q.WithFuzzy(fuzzy)
	}
	return q, nil
}
