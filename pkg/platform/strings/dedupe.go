// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// SplitSet splits a delimited string into a set of trimmed, non-empty,
// unique members in first-seen order. An empty input yields an empty
// (non-nil) slice so JSON renders it as [].
//
//	SplitSet("Ali Hassan; A. Hassan;;Ali Hassan", ";")
//	// Returns: []string{"Ali Hassan", "A. Hassan"}
func SplitSet(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return DedupeAndTrim(strings.Split(s, sep))
}

// ContainsFold reports whether values holds target, ignoring case and
// surrounding whitespace.
func ContainsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
