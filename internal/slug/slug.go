// Package slug derives unique, URL-safe identifiers from titles.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DateSuffix is appended to candidates that would otherwise look like a week bucket.
const DateSuffix = "-article"

const fallback = "untitled"

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	hyphenRuns  = regexp.MustCompile(`-+`)

	// removed before separators are computed, so "node.js" becomes "nodejs".
	removeSet = strings.NewReplacer(
		"*", "", "+", "", "~", "", ".", "", "(", "", ")", "",
		"'", "", "\"", "", "!", "", ":", "", "@", "",
	)

	// letters that have no canonical decomposition.
	transliterations = strings.NewReplacer(
		"&", " and ", "ß", "ss", "æ", "ae", "ø", "o", "œ", "oe",
		"đ", "d", "ð", "d", "ł", "l", "þ", "th", "ı", "i",
	)
)

// Slugify lowercases and transliterates a title to ASCII, drops every character
// other than letters, digits, hyphens and whitespace, and joins words with hyphens. A result shaped like YYYY-MM-DD gains DateSuffix.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = removeAccents(s)
	s = transliterations.Replace(s)
	s = removeSet.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}

	out := hyphenRuns.ReplaceAllString(b.String(), "-")
	out = strings.Trim(out, "-")
	if out == "" {
		out = fallback
	}
	if IsDate(out) {
		out += DateSuffix
	}
	return out
}

// IsDate reports whether s matches the week-bucket date format.
func IsDate(s string) bool {
	return datePattern.MatchString(s)
}

// EnsureUnique returns candidate, or candidate-N for the smallest N >= 1 not in existing.
func EnsureUnique(candidate string, existing map[string]struct{}) string {
	if _, taken := existing[candidate]; !taken {
		return candidate
	}
	for n := 1; ; n++ {
		next := candidate + "-" + strconv.Itoa(n)
		if _, taken := existing[next]; !taken {
			return next
		}
	}
}

// removeAccents strips diacritical marks from a string.
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
