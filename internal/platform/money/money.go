// Package money formats decimal amounts for documents and exports.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Format renders an amount as US dollars with grouping, e.g. "$26,900.50" or "-$800.00".
func Format(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	whole := rounded.IntPart()
	cents := rounded.Sub(decimal.NewFromInt(whole)).Shift(2).IntPart()
	return sign + "$" + printer.Sprintf("%d", whole) + fmt.Sprintf(".%02d", cents)
}
