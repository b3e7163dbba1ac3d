// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// SplitList splits a comma separated value into trimmed, non-empty,
// first-seen-unique elements.
//
//	SplitList(" kafka-1:9092, kafka-2:9092,,kafka-1:9092")
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(raw string) []string {
	return dedupe(strings.Split(raw, ","), strings.TrimSpace)
}

// SplitListLower is SplitList with case folding, for addresses and role names.
func SplitListLower(raw string) []string {
	return dedupe(strings.Split(raw, ","), func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

func dedupe(values []string, normalize func(string) string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}
