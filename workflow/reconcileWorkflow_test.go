package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeAdjustment(t *testing.T) {
	cases := []struct {
		name         string
		actual       string
		target       string
		wantAmount   string
		wantIsIncome bool
		wantNeeded   bool
	}{
		{"already matched", "100.00", "100.00", "0", false, false},
		{"sub-cent drift ignored", "100.00", "100.005", "0", false, false},
		{"target above actual", "100.00", "150.00", "50", true, true},
		{"target below actual", "150.00", "100.00", "50", false, true},
		{"exactly one cent", "100.00", "100.01", "0.01", true, true},
		{"negative target", "50.00", "-25.00", "75", false, true},
	}

	for _, tc := range cases {
		amount, isIncome, needed := ComputeAdjustment(
			decimal.RequireFromString(tc.actual),
			decimal.RequireFromString(tc.target),
		)
		if needed != tc.wantNeeded {
			t.Fatalf("%s: needed = %v, want %v", tc.name, needed, tc.wantNeeded)
		}
		if !needed {
			continue
		}
		if !amount.Equal(decimal.RequireFromString(tc.wantAmount)) {
			t.Fatalf("%s: amount = %s, want %s", tc.name, amount, tc.wantAmount)
		}
		if isIncome != tc.wantIsIncome {
			t.Fatalf("%s: isIncome = %v, want %v", tc.name, isIncome, tc.wantIsIncome)
		}
	}
}
