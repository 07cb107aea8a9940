// Package render draws dashboard panels for a terminal and exports the
// filtered rows.
package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLanguage is used when no language is configured or it fails to parse.
const DefaultLanguage = "en"

// NewPrinter returns a printer for the BCP 47 tag lang.
func NewPrinter(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil || lang == "" {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// Number formats v with grouping and at most two decimals.
func Number(p *message.Printer, v float64) string {
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Count formats an integer with grouping.
func Count(p *message.Printer, n int) string {
	return p.Sprint(number.Decimal(n))
}
