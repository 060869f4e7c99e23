// Package strings holds string-slice helpers shared by configuration
// parsing and result classification.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value and returns the trimmed,
// non-empty, unique parts in order of first appearance.
//
//	SplitList("a:9092, b:9092,,a:9092") // []string{"a:9092", "b:9092"}
func SplitList(value string) []string {
	if value == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(value, ","))
}

// DedupeAndTrim drops empty and repeated elements after trimming
// whitespace. Order is preserved.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// NormalizeLabels is DedupeAndTrim with lowercasing, for detector labels
// that may arrive as "Cell Phone" and "cell phone" in one response.
func NormalizeLabels(values []string) []string {
	return dedupe(values, func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	})
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
