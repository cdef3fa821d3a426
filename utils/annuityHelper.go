package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Annuity math for loans and mortgages. Internals run on float64 because the
// compound formulas need Pow; every result is clamped so callers never see
// NaN or Infinity, and conversion back to decimal happens only at the
// 2-decimal rounding boundary.

// AnnuityPayment returns the fixed monthly payment amortizing principal to
// zero over termMonths at the given APY (percent). Zero or invalid rate falls
// back to straight-line principal/termMonths.
func AnnuityPayment(principal float64, apy float64, termMonths int) float64 {
	if termMonths <= 0 || principal <= 0 || !isFinite(principal) {
		return 0
	}
	r := apy / 12 / 100
	if r == 0 || !isFinite(r) {
		return principal / float64(termMonths)
	}
	payment := principal * r / (1 - math.Pow(1+r, -float64(termMonths)))
	if !isFinite(payment) || payment < 0 {
		return 0
	}
	return payment
}

// AnnuityBalance returns the outstanding balance after monthsElapsed payments.
func AnnuityBalance(principal float64, apy float64, termMonths int, monthsElapsed int) float64 {
	if termMonths <= 0 || principal <= 0 || !isFinite(principal) {
		return 0
	}
	if monthsElapsed >= termMonths {
		return 0
	}
	if monthsElapsed < 0 {
		monthsElapsed = 0
	}
	r := apy / 12 / 100
	if r == 0 || !isFinite(r) {
		balance := principal - (principal/float64(termMonths))*float64(monthsElapsed)
		return math.Max(balance, 0)
	}
	payment := AnnuityPayment(principal, apy, termMonths)
	growth := math.Pow(1+r, float64(monthsElapsed))
	balance := principal*growth - payment*(growth-1)/r
	if !isFinite(balance) || balance < 0 {
		return 0
	}
	return balance
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MoneyFromFloat converts a computed float into a 2-decimal money value,
// clamping non-finite inputs to zero.
func MoneyFromFloat(f float64) decimal.Decimal {
	if !isFinite(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f).Round(2)
}

// RoundMoney rounds at a computation boundary. Intermediate engine math stays
// unrounded to avoid compounding rounding error.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
