package core

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders an amount as US dollars with two decimals and
// thousands grouping, e.g. "$1,234.50" or "-$3.00".
func FormatCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	f, _ := rounded.Float64()
	return sign + "$" + displayPrinter.Sprintf("%.2f", f)
}

// FormatDate renders a date the way US users read it, e.g. "1/15/2024".
func FormatDate(d Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("1/2/2006")
}
