package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Highlight wraps every case-insensitive occurrence of query in text with open and close.
// The query is matched literally.
func Highlight(text, query, open, close string) string {
	re := matcher(query)
	if re == nil || text == "" {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return open + m + close
	})
}

// Snippet trims text to at most width runes centered on the first occurrence of query.
func Snippet(text, query string, width int) string {
	runes := []rune(text)
	if width <= 0 || len(runes) <= width {
		return text
	}

	start := 0
	if re := matcher(query); re != nil {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] > 0 {
			start = utf8.RuneCountInString(text[:loc[0]]) - width/2
		}
	}
	if start < 0 {
		start = 0
	}
	if start+width > len(runes) {
		start = len(runes) - width
	}

	out := string(runes[start : start+width])
	if start > 0 {
		out = "…" + out
	}
	if start+width < len(runes) {
		out += "…"
	}
	return out
}

// matcher finds query literally and case-insensitively in the original text, so match
// offsets index that text. Nil for a blank query.
func matcher(query string) *regexp.Regexp {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return nil
	}
	return re
}
