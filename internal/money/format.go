// Package money renders peso amounts for terminal output.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ExcelFormat is the number format applied to amount cells.
const ExcelFormat = "$#,##0.00"

var (
	printer  = message.NewPrinter(language.English)
	maxPesos = decimal.NewFromInt(math.MaxInt64)
)

// Format renders an amount as $1,234.56, rounded to cents.
// Negative amounts get a leading minus: -$1,234.56.
func Format(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	pesos, cents, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")

	text := "$" + groupThousands(pesos, rounded.Abs().Truncate(0)) + "." + cents
	if rounded.IsNegative() {
		return "-" + text
	}
	return text
}

// groupThousands inserts thousands separators into the integer digits.
// Values that fit in an int64 go through the locale printer exactly.
func groupThousands(digits string, whole decimal.Decimal) string {
	if whole.LessThanOrEqual(maxPesos) {
		return printer.Sprintf("%d", whole.IntPart())
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
