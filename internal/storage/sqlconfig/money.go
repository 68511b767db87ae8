package sqlconfig

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits of the numeric(18,2) amount and
// balance columns.
const MoneyScale int32 = 2

// FitsMoneyScale reports whether d is stored without rounding. Trailing zeros
// beyond the scale are fine: "1.000" fits, "1.005" does not.
func FitsMoneyScale(d decimal.Decimal) bool {
	return d.Round(MoneyScale).Equal(d)
}
