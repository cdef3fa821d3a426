package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func onDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func TestComputeNextDueDate_UtilitiesAlwaysFirstOfMonth(t *testing.T) {
	payment := &Payment{Type: PaymentTypeUtilities, BillingDay: 20}

	// On the 1st the due date is today.
	got := ComputeNextDueDate(payment, onDay(2025, time.March, 1))
	if !got.Equal(onDay(2025, time.March, 1)) {
		t.Fatalf("got %s, want 2025-03-01", got)
	}

	// Mid-month it rolls to the next month's 1st.
	got = ComputeNextDueDate(payment, onDay(2025, time.March, 15))
	if !got.Equal(onDay(2025, time.April, 1)) {
		t.Fatalf("got %s, want 2025-04-01", got)
	}
}

func TestComputeNextDueDate_LoanUsesDayOfMonthOverBillingDay(t *testing.T) {
	payment := &Payment{Type: PaymentTypeLoan, BillingDay: 5, DayOfMonth: intPtr(20)}

	got := ComputeNextDueDate(payment, onDay(2025, time.March, 10))
	if !got.Equal(onDay(2025, time.March, 20)) {
		t.Fatalf("got %s, want 2025-03-20", got)
	}
}

func TestComputeNextDueDate_BillingDayClamped(t *testing.T) {
	// Day 31 clamps to 28 so the due date exists in February too.
	payment := &Payment{Type: PaymentTypeMortgage, BillingDay: 31}

	got := ComputeNextDueDate(payment, onDay(2025, time.February, 10))
	if !got.Equal(onDay(2025, time.February, 28)) {
		t.Fatalf("got %s, want 2025-02-28", got)
	}

	payment = &Payment{Type: PaymentTypeLoan, DayOfMonth: intPtr(0), BillingDay: 15}
	got = ComputeNextDueDate(payment, onDay(2025, time.March, 10))
	if got.Day() != 1 {
		t.Fatalf("day 0 must clamp to 1, got %s", got)
	}
}

func TestComputeNextDueDate_NeverInThePastExceptSubscriptions(t *testing.T) {
	reference := onDay(2025, time.March, 15)

	for _, payment := range []*Payment{
		{Type: PaymentTypeUtilities},
		{Type: PaymentTypeMortgage, BillingDay: 10},
		{Type: PaymentTypeLoan, DayOfMonth: intPtr(3)},
		{Type: PaymentTypeMobile, BillingDay: 7},
		{Type: PaymentTypeParkingRent, BillingDay: 1},
	} {
		got := ComputeNextDueDate(payment, reference)
		if got == nil || got.Before(reference) {
			t.Fatalf("%s: due date %v is before reference %s", payment.Type, got, reference)
		}
	}
}

func TestComputeNextDueDate_StaleSubscriptionPassesThrough(t *testing.T) {
	lapsed := onDay(2025, time.January, 10)
	payment := &Payment{Type: PaymentTypeSubscription, RenewalDate: &lapsed}

	got := ComputeNextDueDate(payment, onDay(2025, time.March, 15))
	if !got.Equal(lapsed) {
		t.Fatalf("a stale renewal date must pass through verbatim, got %s", got)
	}
}

func TestComputeNextDueDate_DueTodayStaysToday(t *testing.T) {
	payment := &Payment{Type: PaymentTypeMobile, BillingDay: 15}

	got := ComputeNextDueDate(payment, onDay(2025, time.March, 15))
	if !got.Equal(onDay(2025, time.March, 15)) {
		t.Fatalf("a due date equal to the reference must not roll forward, got %s", got)
	}
}

func TestAttachComputedFields_LoanMath(t *testing.T) {
	start := onDay(2024, time.March, 15)
	payment := &Payment{
		Type:            PaymentTypeLoan,
		Name:            "Car loan",
		BillingDay:      15,
		PrincipalTotal:  decimal.NewFromInt(120000),
		InterestRateApy: decimal.NewFromInt(12),
		TermMonths:      12,
		StartDate:       &start,
	}

	computed := AttachComputedFields(payment, onDay(2025, time.March, 15))

	if computed.AnnuityPayment == nil || computed.AnnuityPayment.IsZero() {
		t.Fatalf("expected an annuity payment for an active loan")
	}
	// 12 elapsed months of a 12-month term: fully amortized.
	if computed.OutstandingBalance == nil || !computed.OutstandingBalance.IsZero() {
		t.Fatalf("balance at term must be zero, got %v", computed.OutstandingBalance)
	}
	if computed.DaysLeft == nil || *computed.DaysLeft != 0 {
		t.Fatalf("due on the reference day means 0 days left, got %v", computed.DaysLeft)
	}
}

func TestAttachComputedFields_NoLoanMathWithoutStartDate(t *testing.T) {
	payment := &Payment{
		Type:            PaymentTypeLoan,
		Name:            "Incomplete loan",
		BillingDay:      15,
		PrincipalTotal:  decimal.NewFromInt(120000),
		InterestRateApy: decimal.NewFromInt(12),
		TermMonths:      12,
	}

	computed := AttachComputedFields(payment, onDay(2025, time.March, 1))
	if computed.AnnuityPayment != nil || computed.OutstandingBalance != nil {
		t.Fatalf("loan math requires a start date")
	}
	if computed.NextDueDate == nil {
		t.Fatalf("due date is still derivable without a start date")
	}
}

func TestAttachComputedFields_SubscriptionSkipsLoanMath(t *testing.T) {
	renewal := onDay(2025, time.June, 1)
	payment := &Payment{
		Type:        PaymentTypeSubscription,
		Name:        "Music",
		RenewalDate: &renewal,
		Amount:      decimal.NewFromInt(299),
	}

	computed := AttachComputedFields(payment, onDay(2025, time.March, 1))
	if computed.AnnuityPayment != nil || computed.OutstandingBalance != nil {
		t.Fatalf("subscriptions never get loan math")
	}
	if computed.DaysLeft == nil || *computed.DaysLeft != 92 {
		t.Fatalf("days left = %v, want 92", computed.DaysLeft)
	}
}

func TestPaymentTypeIsAmortized(t *testing.T) {
	amortized := map[PaymentType]bool{
		PaymentTypeMortgage:     true,
		PaymentTypeLoan:         true,
		PaymentTypeUtilities:    false,
		PaymentTypeParkingRent:  false,
		PaymentTypeMobile:       false,
		PaymentTypeSubscription: false,
	}
	for paymentType, want := range amortized {
		if got := paymentType.IsAmortized(); got != want {
			t.Fatalf("%s.IsAmortized() = %v, want %v", paymentType, got, want)
		}
	}
}
