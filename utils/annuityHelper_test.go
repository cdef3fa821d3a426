package utils

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAnnuityPayment_StandardLoan(t *testing.T) {
	// 120000 over 12 months at 12% APY: the classic annuity formula gives
	// ~10661.86 per month.
	got := AnnuityPayment(120000, 12, 12)
	if math.Abs(got-10661.86) > 0.1 {
		t.Fatalf("expected payment near 10661.86, got %f", got)
	}
}

func TestAnnuityPayment_ZeroRateIsStraightLine(t *testing.T) {
	got := AnnuityPayment(120000, 0, 12)
	if got != 10000 {
		t.Fatalf("expected 10000, got %f", got)
	}
}

func TestAnnuityPayment_DegenerateInputs(t *testing.T) {
	cases := []struct {
		name       string
		principal  float64
		apy        float64
		termMonths int
	}{
		{"zero term", 1000, 10, 0},
		{"negative term", 1000, 10, -3},
		{"zero principal", 0, 10, 12},
		{"negative principal", -1000, 10, 12},
		{"nan principal", math.NaN(), 10, 12},
		{"inf principal", math.Inf(1), 10, 12},
	}
	for _, tc := range cases {
		if got := AnnuityPayment(tc.principal, tc.apy, tc.termMonths); got != 0 {
			t.Fatalf("%s: expected 0, got %f", tc.name, got)
		}
	}
}

func TestAnnuityPayment_ExtremeRateStaysFinite(t *testing.T) {
	got := AnnuityPayment(1e12, 1e6, 360)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("expected finite payment, got %f", got)
	}
}

func TestAnnuityBalance_BoundaryMonths(t *testing.T) {
	const principal = 120000.0

	if got := AnnuityBalance(principal, 12, 12, 0); math.Abs(got-principal) > 1e-6 {
		t.Fatalf("expected full principal at month 0, got %f", got)
	}
	if got := AnnuityBalance(principal, 12, 12, 12); got != 0 {
		t.Fatalf("expected 0 at term, got %f", got)
	}
	if got := AnnuityBalance(principal, 12, 12, 240); got != 0 {
		t.Fatalf("expected 0 past term, got %f", got)
	}
	if got := AnnuityBalance(principal, 12, 12, -5); math.Abs(got-principal) > 1e-6 {
		t.Fatalf("negative elapsed should clamp to month 0, got %f", got)
	}
}

func TestAnnuityBalance_StrictlyDecreasing(t *testing.T) {
	prev := AnnuityBalance(120000, 12, 12, 0)
	for k := 1; k <= 12; k++ {
		got := AnnuityBalance(120000, 12, 12, k)
		if got >= prev {
			t.Fatalf("balance must decrease each month: month %d is %f, previous %f", k, got, prev)
		}
		prev = got
	}
}

func TestAnnuityBalance_ZeroRateIsLinear(t *testing.T) {
	if got := AnnuityBalance(12000, 0, 12, 3); got != 9000 {
		t.Fatalf("expected 9000, got %f", got)
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if got := MoneyFromFloat(math.NaN()); !got.IsZero() {
		t.Fatalf("NaN should map to zero, got %s", got)
	}
	if got := MoneyFromFloat(math.Inf(-1)); !got.IsZero() {
		t.Fatalf("-Inf should map to zero, got %s", got)
	}
	if got := MoneyFromFloat(10.456); !got.Equal(decimal.NewFromFloat(10.46)) {
		t.Fatalf("expected 10.46, got %s", got)
	}
}

func TestRoundMoney(t *testing.T) {
	got := RoundMoney(decimal.RequireFromString("1.005"))
	if !got.Equal(decimal.RequireFromString("1.01")) {
		t.Fatalf("expected 1.01, got %s", got)
	}
}
