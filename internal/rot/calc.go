package rot

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// Yearly per-buyer ceilings in SEK.
var (
	ceilingROT = decimal.NewFromInt(50000)
	ceilingRUT = decimal.NewFromInt(75000)
)

// CalcDeduction returns labor * percent / 100 rounded to 2 decimals,
// half away from zero.
func CalcDeduction(labor decimal.Decimal, percent int64) decimal.Decimal {
	return labor.Mul(decimal.NewFromInt(percent)).Div(oneHundred).Round(2)
}

func ceilingFor(kind Kind) decimal.Decimal {
	if kind == KindRUT {
		return ceilingRUT
	}
	return ceilingROT
}
