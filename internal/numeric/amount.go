// Package numeric holds the locale-tolerant amount and date extractors
// shared by the statement parsers, the suggestion engine and the commit
// engine.
package numeric

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a statement amount cell. Bank exports mix Swedish and
// ISO conventions, so both "," and "." appear as decimal or thousands
// separators; whichever symbol occurs last in the string is taken as the
// decimal separator and the other is stripped. Spaces (including NBSP) and
// currency suffixes are ignored. A minus sign may lead or trail.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == ',' || r == '.' || r == '-':
			return r
		case r == '−': // unicode minus
			return '-'
		}
		return -1
	}, s)

	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("no digits in amount %q", s)
	}

	negative := false
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = cleaned[1:]
	}
	if strings.HasSuffix(cleaned, "-") {
		negative = true
		cleaned = cleaned[:len(cleaned)-1]
	}
	if strings.Contains(cleaned, "-") {
		return decimal.Decimal{}, fmt.Errorf("misplaced minus in amount %q", s)
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastPeriod := strings.LastIndex(cleaned, ".")
	switch {
	case lastComma >= 0 && lastComma > lastPeriod:
		// Comma is decimal, periods are thousands.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
		if strings.Count(cleaned, ".") > 1 {
			return decimal.Decimal{}, fmt.Errorf("ambiguous separators in amount %q", s)
		}
	case lastPeriod >= 0:
		// Period is decimal, commas are thousands.
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		if strings.Count(cleaned, ".") > 1 {
			// More than one period: all are thousands separators.
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
