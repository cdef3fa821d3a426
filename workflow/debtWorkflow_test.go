package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/models"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testDebt: 1000 at 36.5% APY accrues exactly 1.00 per day, which keeps the
// expected values in these tests exact.
func testDebt() *models.Debt {
	start := day(2025, time.January, 1)
	return &models.Debt{
		ID:              1,
		OwnerId:         "owner-1",
		Counterparty:    "Alex",
		Direction:       models.DebtDirectionLent,
		PrincipalAmount: dec("1000"),
		InterestRateApy: dec("36.5"),
		StartDate:       &start,
		IsClosed:        utils.NewFalse(),
	}
}

func TestComputeDebtState_NoPayments(t *testing.T) {
	state := ComputeDebtState(testDebt(), nil, day(2025, time.January, 11))

	if !state.OutstandingPrincipal.Equal(dec("1000")) {
		t.Fatalf("outstanding = %s, want 1000", state.OutstandingPrincipal)
	}
	if !state.AccruedInterest.Equal(dec("10")) {
		t.Fatalf("accrued over 10 days = %s, want 10", state.AccruedInterest)
	}
	if !state.InterestDue.Equal(dec("10")) {
		t.Fatalf("interest due = %s, want 10", state.InterestDue)
	}
	if state.LastPaymentDate != nil {
		t.Fatalf("expected no last payment date")
	}
}

func TestComputeDebtState_ZeroRateNeverAccrues(t *testing.T) {
	debt := testDebt()
	debt.InterestRateApy = decimal.Zero

	state := ComputeDebtState(debt, nil, day(2030, time.January, 1))
	if !state.AccruedInterest.IsZero() {
		t.Fatalf("zero-rate debt accrued %s", state.AccruedInterest)
	}
	if !state.InterestDue.IsZero() {
		t.Fatalf("zero-rate debt owes interest %s", state.InterestDue)
	}
}

func TestComputeDebtState_StubAccrualAcrossPayments(t *testing.T) {
	debt := testDebt()
	payments := []models.DebtPayment{
		{
			PaymentDate:   day(2025, time.January, 11),
			PrincipalPaid: dec("500"),
			InterestPaid:  dec("10"),
			AmountTotal:   dec("510"),
		},
	}

	// 10 days on 1000 (10.00), then 10 days on 500 (5.00).
	state := ComputeDebtState(debt, payments, day(2025, time.January, 21))

	if !state.OutstandingPrincipal.Equal(dec("500")) {
		t.Fatalf("outstanding = %s, want 500", state.OutstandingPrincipal)
	}
	if !state.AccruedInterest.Equal(dec("15")) {
		t.Fatalf("accrued = %s, want 15", state.AccruedInterest)
	}
	if !state.InterestDue.Equal(dec("5")) {
		t.Fatalf("interest due = %s, want 5", state.InterestDue)
	}
	if !state.TotalPaid.Equal(dec("510")) {
		t.Fatalf("total paid = %s, want 510", state.TotalPaid)
	}
	if state.LastPaymentDate == nil || !state.LastPaymentDate.Equal(day(2025, time.January, 11)) {
		t.Fatalf("last payment date = %v, want 2025-01-11", state.LastPaymentDate)
	}
}

func TestComputeDebtState_InputOrderDoesNotMatter(t *testing.T) {
	debt := testDebt()
	first := models.DebtPayment{PaymentDate: day(2025, time.January, 11), PrincipalPaid: dec("300"), InterestPaid: dec("10"), AmountTotal: dec("310")}
	second := models.DebtPayment{PaymentDate: day(2025, time.January, 21), PrincipalPaid: dec("200"), InterestPaid: dec("7"), AmountTotal: dec("207")}

	asOf := day(2025, time.February, 1)
	sorted := ComputeDebtState(debt, []models.DebtPayment{first, second}, asOf)
	reversed := ComputeDebtState(debt, []models.DebtPayment{second, first}, asOf)

	if !sorted.AccruedInterest.Equal(reversed.AccruedInterest) ||
		!sorted.OutstandingPrincipal.Equal(reversed.OutstandingPrincipal) {
		t.Fatalf("replay depends on input order: %+v vs %+v", sorted, reversed)
	}
}

func TestComputeDebtState_OverpaymentClampsToZero(t *testing.T) {
	debt := testDebt()
	payments := []models.DebtPayment{
		{PaymentDate: day(2025, time.January, 11), PrincipalPaid: dec("2000"), AmountTotal: dec("2000")},
	}

	state := ComputeDebtState(debt, payments, day(2025, time.March, 1))
	if !state.OutstandingPrincipal.IsZero() {
		t.Fatalf("outstanding must clamp to zero, got %s", state.OutstandingPrincipal)
	}
	// Nothing outstanding, so the tail accrues no further interest.
	if !state.AccruedInterest.Equal(dec("10")) {
		t.Fatalf("accrued = %s, want 10", state.AccruedInterest)
	}
}

func TestComputeDebtState_PaymentBeforeStartDateClampsDays(t *testing.T) {
	debt := testDebt()
	payments := []models.DebtPayment{
		{PaymentDate: day(2024, time.December, 1), PrincipalPaid: dec("100"), AmountTotal: dec("100")},
	}

	state := ComputeDebtState(debt, payments, day(2025, time.January, 1))
	if state.AccruedInterest.IsNegative() {
		t.Fatalf("accrued interest went negative: %s", state.AccruedInterest)
	}
	if !state.OutstandingPrincipal.Equal(dec("900")) {
		t.Fatalf("outstanding = %s, want 900", state.OutstandingPrincipal)
	}
}

func TestPlanDebtPayment_InterestFirstSplit(t *testing.T) {
	debt := testDebt()

	result, err := PlanDebtPayment(debt, nil, &DebtPaymentInput{
		PrincipalAmount: dec("500"),
		PaymentDate:     "2025-01-11",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Payment.InterestPaid.Equal(dec("10")) {
		t.Fatalf("interest paid = %s, want 10 (all due interest)", result.Payment.InterestPaid)
	}
	if !result.Payment.PrincipalPaid.Equal(dec("500")) {
		t.Fatalf("principal paid = %s, want 500", result.Payment.PrincipalPaid)
	}
	if !result.Payment.AmountTotal.Equal(dec("510")) {
		t.Fatalf("amount total = %s, want 510", result.Payment.AmountTotal)
	}
	if !result.State.OutstandingPrincipal.Equal(dec("500")) {
		t.Fatalf("post outstanding = %s, want 500", result.State.OutstandingPrincipal)
	}
	if !result.State.InterestDue.IsZero() {
		t.Fatalf("post interest due = %s, want 0", result.State.InterestDue)
	}
	if result.IsClosed {
		t.Fatalf("debt with outstanding principal must not close")
	}
}

func TestPlanDebtPayment_ClampsPrincipalAndCloses(t *testing.T) {
	debt := testDebt()

	result, err := PlanDebtPayment(debt, nil, &DebtPaymentInput{
		PrincipalAmount: dec("999999"),
		PaymentDate:     "2025-01-11",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Payment.PrincipalPaid.Equal(dec("1000")) {
		t.Fatalf("principal must clamp to outstanding, got %s", result.Payment.PrincipalPaid)
	}
	if !result.IsClosed {
		t.Fatalf("paying everything off must close the debt")
	}
}

func TestPlanDebtPayment_ClosureJudgedAsOfPaymentDate(t *testing.T) {
	debt := testDebt()

	// A payoff that leaves a sub-cent residual is settled as of the payment
	// date. The commit path persists this verdict verbatim, so a backdated
	// payment closes the debt even when interest would have accrued on the
	// residual between the payment date and today.
	result, err := PlanDebtPayment(debt, nil, &DebtPaymentInput{
		PrincipalAmount: dec("999.99"),
		PaymentDate:     "2025-01-11",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.State.OutstandingPrincipal.Equal(dec("0.01")) {
		t.Fatalf("outstanding = %s, want 0.01", result.State.OutstandingPrincipal)
	}
	if !result.IsClosed {
		t.Fatalf("a within-threshold residual at the payment date must close the debt")
	}

	// The verdict matches what a dry-run of the same input reports: both
	// paths share this plan, so they can never disagree on closure.
	dry, err := PlanDebtPayment(debt, nil, &DebtPaymentInput{
		PrincipalAmount: dec("999.99"),
		PaymentDate:     "2025-01-11",
		DryRun:          true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dry.IsClosed != result.IsClosed {
		t.Fatalf("dry-run and commit plans disagree on closure: %v vs %v", dry.IsClosed, result.IsClosed)
	}
}

func TestPlanDebtPayment_RejectsNonPositivePrincipal(t *testing.T) {
	debt := testDebt()

	for _, amount := range []string{"0", "-5"} {
		_, err := PlanDebtPayment(debt, nil, &DebtPaymentInput{
			PrincipalAmount: dec(amount),
			PaymentDate:     "2025-01-11",
		})
		if err == nil {
			t.Fatalf("expected validation error for principal %s", amount)
		}
		if !utils.IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
	}
}

func TestPlanDebtPayment_RejectsBadDate(t *testing.T) {
	_, err := PlanDebtPayment(testDebt(), nil, &DebtPaymentInput{
		PrincipalAmount: dec("100"),
		PaymentDate:     "11/01/2025",
	})
	if err == nil || !utils.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPlanDebtPayment_DoesNotMutateInputs(t *testing.T) {
	debt := testDebt()
	payments := []models.DebtPayment{
		{PaymentDate: day(2025, time.January, 5), PrincipalPaid: dec("100"), AmountTotal: dec("100")},
	}

	if _, err := PlanDebtPayment(debt, payments, &DebtPaymentInput{
		PrincipalAmount: dec("200"),
		PaymentDate:     "2025-01-11",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payments) != 1 {
		t.Fatalf("payments slice length changed to %d", len(payments))
	}
	if !debt.PrincipalAmount.Equal(dec("1000")) {
		t.Fatalf("debt principal mutated to %s", debt.PrincipalAmount)
	}
	if debt.IsClosed == nil || *debt.IsClosed {
		t.Fatalf("debt closed flag mutated")
	}
}

func TestDebtIsSettled_Threshold(t *testing.T) {
	settled := DebtState{OutstandingPrincipal: dec("0.01"), InterestDue: dec("0.01")}
	if !debtIsSettled(settled) {
		t.Fatalf("residue of one cent on both sides counts as settled")
	}

	open := DebtState{OutstandingPrincipal: dec("0.02"), InterestDue: decimal.Zero}
	if debtIsSettled(open) {
		t.Fatalf("two cents outstanding is not settled")
	}
}
