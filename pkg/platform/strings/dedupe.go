// Package strings holds small helpers for operator-supplied string lists.
package strings

import "strings"

// DedupeAndTrim trims each element, drops empties and repeats, and keeps the
// first occurrence's position. Broker lists and similar comma-split env values
// go through this before use.
func DedupeAndTrim(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
