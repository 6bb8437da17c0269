// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrimLower removes empty strings and case-insensitive duplicates
// from a slice, trimming and lowercasing each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrimLower([]string{"  FOO ", "bar", "Foo"})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
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

// CountDistinctFold returns the number of distinct non-empty values after
// trimming and case folding.
//
// Example:
//
//	CountDistinctFold([]string{"Tinder", "tinder ", "Hinge", ""})
//	// Returns: 2
func CountDistinctFold(values []string) int {
	return len(DedupeAndTrimLower(values))
}

// FoldSet builds a lookup set of trimmed, lowercased values.
func FoldSet(values []string) map[string]struct{} {
	folded := DedupeAndTrimLower(values)
	set := make(map[string]struct{}, len(folded))
	for _, v := range folded {
		set[v] = struct{}{}
	}
	return set
}

// Fold trims and lowercases a single value, the key form used by FoldSet.
func Fold(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
