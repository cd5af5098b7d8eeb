package dlp

import "regexp"

// FinancialAccountRule blocks IBAN-style account numbers: country code, two check digits and
// 11 to 30 alphanumerics, written compact or in the printed groups of four.
func FinancialAccountRule() Rule {
	return Rule{
		ID:          "financial-account",
		Tag:         TagFinancialAccount,
		Disposition: Block,
		Advisory:    "IBAN codes are not allowed and will be blocked",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}\b`),
			regexp.MustCompile(`\b[A-Z]{2}[0-9]{2}(?: [A-Z0-9]{4}){3,7}(?: [A-Z0-9]{1,4})?\b`),
		},
	}
}

// FiscalIDRule masks Italian fiscal codes: six letters, two digits, a month letter,
// two digits, a municipality letter, three digits and a check letter.
func FiscalIDRule() Rule {
	return Rule{
		ID:          "fiscal-id",
		Tag:         TagFiscalID,
		Disposition: Mask,
		Advisory:    "fiscal identifiers will be automatically masked",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b[A-Z]{6}[0-9]{2}[A-Z][0-9]{2}[A-Z][0-9]{3}[A-Z]\b`),
		},
	}
}

// Default returns a scanner with the built-in rules.
func Default() *Scanner {
	return NewScanner(FinancialAccountRule(), FiscalIDRule())
}
