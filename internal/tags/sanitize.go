// Package tags canonicalizes free-text tags produced by the summarizer.
package tags

import (
	"regexp"
	"strings"
)

// DefaultMax is the maximum number of tags kept per archived item.
const DefaultMax = 10

var (
	disallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	whitespace = regexp.MustCompile(`\s+`)
	hyphenRuns = regexp.MustCompile(`-+`)
)

// Normalize returns the canonical form of a single tag, or "" if nothing survives.
func Normalize(tag string) string {
	s := strings.ToLower(strings.TrimSpace(tag))
	s = disallowed.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = whitespace.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Sanitize normalizes tags, drops empties and duplicates (first occurrence wins) and
// truncates the result to max entries. max <= 0 means DefaultMax.
func Sanitize(tags []string, max int) []string {
	if max <= 0 {
		max = DefaultMax
	}

	out := make([]string, 0, min(len(tags), max))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		n := Normalize(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
		if len(out) == max {
			break
		}
	}
	return out
}

// ParseList splits a comma-separated backend response into trimmed, non-empty tags.
func ParseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
