package draft

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// DollarsToCents parses a decimal dollar amount such as "12.345" into cents,
// rounding half away from zero. It reports false for empty or unparsable input.
func DollarsToCents(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	dollars, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	cents := dollars.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, false
	}
	return cents.IntPart(), true
}

// FormatCents renders cents as US dollars, e.g. "$1,234.56" or "-$5.00".
func FormatCents(cents int64) string {
	amount := decimal.New(cents, -2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}
