// Package money keeps monetary arithmetic in one place.
//
// Amounts are shopspring decimals at full precision. Rounding to two digits
// happens only for display, after summing.
package money

import "github.com/shopspring/decimal"

// CommissionRatePercent is the platform cut taken from every seller order at payout time.
const CommissionRatePercent = 10

var (
	hundred        = decimal.NewFromInt(100)
	commissionRate = decimal.NewFromInt(CommissionRatePercent)
)

// CommissionRate returns the fixed commission rate in percent.
func CommissionRate() decimal.Decimal { return commissionRate }

// Split returns the commission and net parts of amount. commission+net == amount exactly.
func Split(amount decimal.Decimal) (commission, net decimal.Decimal) {
	commission = amount.Mul(commissionRate).Div(hundred)
	net = amount.Sub(commission)
	return commission, net
}

func Sum(vals ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, vals...)
}

// Percent returns amount * pct / 100.
func Percent(amount decimal.Decimal, pct int64) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(pct)).Div(hundred)
}

// Display renders amount rounded half-up to two digits.
func Display(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// IsCents reports whether amount fits NUMERIC(14,2) without rounding.
func IsCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(2))
}
