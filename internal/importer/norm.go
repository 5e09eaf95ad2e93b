package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripDiacritics removes combining marks so "Bokföringsdatum" and
// "Bokforingsdatum" fingerprint identically.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeCell lowercases, strips diacritics and collapses whitespace.
// Header fingerprints are matched on this form.
func normalizeCell(s string) string {
	out, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// summaryPrefixes mark footer rows that exports append below the data.
var summaryPrefixes = []string{"summa", "total", "sum", "saldo"}

// isSummaryRow reports whether the row's first non-empty cell looks like a
// totals/footer line.
func isSummaryRow(row []string) bool {
	for _, cell := range row {
		n := normalizeCell(cell)
		if n == "" {
			continue
		}
		for _, p := range summaryPrefixes {
			if strings.HasPrefix(n, p) {
				return true
			}
		}
		return false
	}
	return false
}
