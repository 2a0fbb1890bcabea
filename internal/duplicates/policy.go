package duplicates

import (
	"strings"
	"unicode/utf8"
)

// minSimilarBaseLen is the base name length a similar match must exceed.
const minSimilarBaseLen = 3

// Normalize lower-cases and trims a file name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BaseName strips the last extension. Names without a dot, or whose only
// dot leads the name, are returned whole.
func BaseName(normalized string) string {
	idx := strings.LastIndex(normalized, ".")
	if idx <= 0 {
		return normalized
	}
	return normalized[:idx]
}

// Classify compares a proposed name with an existing one. Exact wins; a
// similar match needs equal base names longer than minSimilarBaseLen.
func Classify(proposed, existing string) (MatchType, bool) {
	a, b := Normalize(proposed), Normalize(existing)
	if a == "" || b == "" {
		return "", false
	}
	if a == b {
		return MatchExact, true
	}
	base := BaseName(a)
	if base == BaseName(b) && utf8.RuneCountInString(base) > minSimilarBaseLen {
		return MatchSimilar, true
	}
	return "", false
}
