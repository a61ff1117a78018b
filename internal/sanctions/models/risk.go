package models

import (
	"fmt"
	"strings"
)

// RiskLevel is the closed set of screening outcomes.
type RiskLevel string

const (
	// RiskCritical means at least one watchlist record matched the name.
	RiskCritical RiskLevel = "CRITICAL"
	// RiskClear means the provider answered and nothing matched.
	RiskClear RiskLevel = "CLEAR"
	// RiskUnknown means the lookup failed and no determination was made.
	RiskUnknown RiskLevel = "UNKNOWN"
)

// IsValid reports whether r is one of the known risk levels.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskCritical, RiskClear, RiskUnknown:
		return true
	}
	return false
}

func (r RiskLevel) String() string { return string(r) }

// ParseRiskLevel accepts any casing of a known risk level.
func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return r, nil
}
