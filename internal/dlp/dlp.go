// Package dlp flags sensitive patterns in outbound message text.
package dlp

import (
	"regexp"
	"sort"
	"strings"
)

type Disposition string

const (
	// Block prevents sending until the content is removed.
	Block Disposition = "block"
	// Mask lets the message through with the matched span redacted.
	Mask Disposition = "mask"
)

const (
	TagFinancialAccount = "blocking-pattern-financial-account"
	TagFiscalID         = "masking-pattern-fiscal-id"
)

type Rule struct {
	ID          string
	Tag         string
	Disposition Disposition
	Advisory    string
	Patterns    []*regexp.Regexp
}

// Warning is one rule that matched, with the spans it matched.
type Warning struct {
	RuleID      string
	Tag         string
	Disposition Disposition
	Advisory    string
	Matches     []Span
}

// Span is a byte range of the scanned text.
type Span struct {
	Start int
	End   int
}

type Warnings []Warning

func (w Warnings) Blocking() bool {
	for _, warning := range w {
		if warning.Disposition == Block {
			return true
		}
	}
	return false
}

func (w Warnings) Masking() bool {
	for _, warning := range w {
		if warning.Disposition == Mask {
			return true
		}
	}
	return false
}

func (w Warnings) Tags() []string {
	tags := make([]string, 0, len(w))
	for _, warning := range w {
		tags = append(tags, warning.Tag)
	}
	return tags
}

func (w Warnings) Advisories() []string {
	out := make([]string, 0, len(w))
	for _, warning := range w {
		out = append(out, warning.Advisory)
	}
	return out
}

// Scanner evaluates rules in order. It holds no state between calls and is safe for
// concurrent use. RE2 matching keeps every scan linear in the input length.
type Scanner struct {
	rules []Rule
}

func NewScanner(rules ...Rule) *Scanner {
	return &Scanner{rules: append([]Rule(nil), rules...)}
}

// WithRule returns a scanner that also evaluates r, after the existing rules.
func (s *Scanner) WithRule(r Rule) *Scanner {
	rules := make([]Rule, 0, len(s.rules)+1)
	rules = append(rules, s.rules...)
	rules = append(rules, r)
	return &Scanner{rules: rules}
}

func (s *Scanner) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Scan returns one warning per matching rule, in rule order.
func (s *Scanner) Scan(text string) Warnings {
	var warnings Warnings
	if text == "" {
		return warnings
	}
	for _, rule := range s.rules {
		spans := matchSpans(rule.Patterns, text)
		if len(spans) == 0 {
			continue
		}
		warnings = append(warnings, Warning{
			RuleID:      rule.ID,
			Tag:         rule.Tag,
			Disposition: rule.Disposition,
			Advisory:    rule.Advisory,
			Matches:     spans,
		})
	}
	return warnings
}

// Mask replaces every span matched by a mask rule with one '*' per rune.
func (s *Scanner) Mask(text string) string {
	var spans []Span
	for _, w := range s.Scan(text) {
		if w.Disposition == Mask {
			spans = append(spans, w.Matches...)
		}
	}
	if len(spans) == 0 {
		return text
	}
	spans = mergeSpans(spans)

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, sp := range spans {
		b.WriteString(text[prev:sp.Start])
		b.WriteString(strings.Repeat("*", len([]rune(text[sp.Start:sp.End]))))
		prev = sp.End
	}
	b.WriteString(text[prev:])
	return b.String()
}

func matchSpans(patterns []*regexp.Regexp, text string) []Span {
	var spans []Span
	for _, re := range patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, Span{Start: loc[0], End: loc[1]})
		}
	}
	if len(spans) > 1 {
		spans = mergeSpans(spans)
	}
	return spans
}

func mergeSpans(spans []Span) []Span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	merged := spans[:1]
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.Start <= last.End {
			if sp.End > last.End {
				last.End = sp.End
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}
