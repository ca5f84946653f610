package engine

import "github.com/shopspring/decimal"

// roundMoney rounds half away from zero to scale fractional digits.
func roundMoney(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Round(scale)
}
