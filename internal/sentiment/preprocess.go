package sentiment

import (
	"regexp"
	"strings"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	mentionPattern    = regexp.MustCompile(`@\w+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// CleanText strips URLs and mentions and collapses whitespace. The cleaned
// form is what gets scored and persisted next to the raw text.
func CleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, " ")
	text = mentionPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ExtractSymbol returns the first configured symbol mentioned in the text,
// matching case-insensitively with or without a $ or # prefix. Empty when no
// symbol matches.
func ExtractSymbol(text string, symbols []string) string {
	upper := strings.ToUpper(text)
	for _, sym := range symbols {
		s := strings.ToUpper(sym)
		idx := 0
		for {
			i := strings.Index(upper[idx:], s)
			if i < 0 {
				break
			}
			start := idx + i
			end := start + len(s)
			if isSymbolBoundary(upper, start-1) && isSymbolBoundary(upper, end) {
				return sym
			}
			idx = end
		}
	}
	return ""
}

// isSymbolBoundary reports whether position i does not continue a word.
// $ and # count as boundaries so cashtags and hashtags match.
func isSymbolBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	if c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
		return false
	}
	return true
}
