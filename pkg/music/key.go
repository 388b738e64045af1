package music

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// UnknownKey is the cache key of an empty query.
const UnknownKey = "unknown"

const keySeparator = '_'

// CacheKey normalizes a free-text query into a memo key: accents are folded,
// letters lowercased and every run of non-alphanumeric characters collapsed
// into a single underscore. Blank input maps to UnknownKey.
func CacheKey(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return UnknownKey
	}

	var b strings.Builder
	inRun := false
	for _, r := range norm.NFKD.String(query) {
		if unicode.IsMark(r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			inRun = false
			continue
		}
		if !inRun {
			b.WriteRune(keySeparator)
			inRun = true
		}
	}
	return b.String()
}
