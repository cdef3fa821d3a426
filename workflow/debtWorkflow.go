package workflow

import (
	"context"
	"errors"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/models"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Day-count convention for debt interest: simple interest, Actual/365,
// accrued per stub period between payments. No compounding.
var (
	daysPerYear      = decimal.NewFromInt(365)
	hundred          = decimal.NewFromInt(100)
	closureThreshold = decimal.New(1, -2) // 0.01
)

type DebtState struct {
	OutstandingPrincipal decimal.Decimal `json:"outstanding_principal"`
	AccruedInterest      decimal.Decimal `json:"accrued_interest"`
	InterestDue          decimal.Decimal `json:"interest_due"`
	TotalPaid            decimal.Decimal `json:"total_paid"`
	TotalPrincipalPaid   decimal.Decimal `json:"total_principal_paid"`
	TotalInterestPaid    decimal.Decimal `json:"total_interest_paid"`
	LastPaymentDate      *time.Time      `json:"last_payment_date"`
}

type DebtSummary struct {
	models.Debt
	State    DebtState       `json:"state"`
	TotalDue decimal.Decimal `json:"total_due"`
}

// sortPayments orders payments by payment date ascending, falling back to
// creation time for same-day entries.
func sortPayments(payments []models.DebtPayment) []models.DebtPayment {
	sorted := append([]models.DebtPayment(nil), payments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		di := utils.TruncateToDay(sorted[i].PaymentDate)
		dj := utils.TruncateToDay(sorted[j].PaymentDate)
		if di.Equal(dj) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return di.Before(dj)
	})
	return sorted
}

// stubInterest accrues simple interest on the outstanding principal for one
// stub period of the given number of days.
func stubInterest(outstanding decimal.Decimal, rateApy decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || !rateApy.IsPositive() || !outstanding.IsPositive() {
		return decimal.Zero
	}
	return outstanding.
		Mul(rateApy).Div(hundred).
		Mul(decimal.NewFromInt(int64(days))).Div(daysPerYear)
}

// ComputeDebtState replays the payment history against the debt and returns
// the derived state as of the given date. Pure: no storage access, no
// mutation of its inputs. Interest stays unrounded while accruing and is
// rounded to 2 decimals only at the end.
func ComputeDebtState(debt *models.Debt, payments []models.DebtPayment, asOf time.Time) DebtState {
	asOf = utils.TruncateToDay(asOf)

	cursor := asOf
	if debt.StartDate != nil {
		cursor = utils.TruncateToDay(*debt.StartDate)
	}

	outstanding := debt.PrincipalAmount
	rate := debt.InterestRateApy
	accrued := decimal.Zero
	totalPrincipalPaid := decimal.Zero
	totalInterestPaid := decimal.Zero
	totalPaid := decimal.Zero
	var lastPaymentDate *time.Time

	for _, payment := range sortPayments(payments) {
		paymentDate := utils.TruncateToDay(payment.PaymentDate)
		if paymentDate.Before(cursor) {
			// Out-of-order dates clamp to a zero-day stub. This can mask a
			// payment recorded before the debt's start date, so flag it.
			config.LogWarn(config.GetLogger(), "debtWorkflow.go", "ComputeDebtState",
				"payment dated before accrual cursor; day count clamped to 0", payment.ID)
		}
		days := utils.DaysBetween(cursor, paymentDate)
		accrued = accrued.Add(stubInterest(outstanding, rate, days))

		totalPrincipalPaid = totalPrincipalPaid.Add(payment.PrincipalPaid)
		totalInterestPaid = totalInterestPaid.Add(payment.InterestPaid)
		totalPaid = totalPaid.Add(payment.AmountTotal)

		outstanding = outstanding.Sub(payment.PrincipalPaid)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}

		cursor = paymentDate
		d := paymentDate
		lastPaymentDate = &d
	}

	// Tail accrual from the last payment (or start date) to asOf.
	accrued = accrued.Add(stubInterest(outstanding, rate, utils.DaysBetween(cursor, asOf)))

	accruedRounded := utils.RoundMoney(accrued)
	interestDue := accruedRounded.Sub(utils.RoundMoney(totalInterestPaid))
	if interestDue.IsNegative() {
		interestDue = decimal.Zero
	}

	return DebtState{
		OutstandingPrincipal: utils.RoundMoney(outstanding),
		AccruedInterest:      accruedRounded,
		InterestDue:          utils.RoundMoney(interestDue),
		TotalPaid:            utils.RoundMoney(totalPaid),
		TotalPrincipalPaid:   utils.RoundMoney(totalPrincipalPaid),
		TotalInterestPaid:    utils.RoundMoney(totalInterestPaid),
		LastPaymentDate:      lastPaymentDate,
	}
}

// ExtendDebtWithSummary wraps ComputeDebtState, adding the combined total due.
func ExtendDebtWithSummary(debt *models.Debt, asOf time.Time) *DebtSummary {
	state := ComputeDebtState(debt, debt.Payments, asOf)
	return &DebtSummary{
		Debt:     *debt,
		State:    state,
		TotalDue: state.OutstandingPrincipal.Add(state.InterestDue),
	}
}

// debtIsSettled reports whether both outstanding principal and interest due
// round to within a cent of zero.
func debtIsSettled(state DebtState) bool {
	return state.OutstandingPrincipal.LessThanOrEqual(closureThreshold) &&
		state.InterestDue.LessThanOrEqual(closureThreshold)
}

type DebtPaymentInput struct {
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	PaymentDate     string          `json:"payment_date" binding:"required"`
	Comment         string          `json:"comment"`
	DryRun          bool            `json:"dry_run"`
}

type DebtPaymentResult struct {
	Payment  models.DebtPayment `json:"payment"`
	State    DebtState          `json:"state"`
	IsClosed bool               `json:"is_closed"`
	DryRun   bool               `json:"dry_run"`
}

// PlanDebtPayment builds the payment a proposed principal amount would
// produce, without touching storage. The principal component is clamped to
// the outstanding principal; when the debt carries interest, the entire
// currently-due interest is attributed to the payment. Interest-first, not
// proportional amortization: the surrounding UI assumes this split.
func PlanDebtPayment(debt *models.Debt, payments []models.DebtPayment, input *DebtPaymentInput) (*DebtPaymentResult, error) {
	if !input.PrincipalAmount.IsPositive() {
		return nil, utils.NewValidationError("principal_amount", "must be positive")
	}
	paymentDate, err := utils.ParseDate(input.PaymentDate)
	if err != nil {
		return nil, err
	}

	state := ComputeDebtState(debt, payments, paymentDate)

	principal := input.PrincipalAmount
	if principal.GreaterThan(state.OutstandingPrincipal) {
		principal = state.OutstandingPrincipal
	}

	interest := decimal.Zero
	if debt.InterestRateApy.IsPositive() {
		interest = state.InterestDue
	}

	payment := models.DebtPayment{
		DebtId:        debt.ID,
		OwnerId:       debt.OwnerId,
		PaymentDate:   paymentDate,
		PrincipalPaid: utils.RoundMoney(principal),
		InterestPaid:  utils.RoundMoney(interest),
		AmountTotal:   utils.RoundMoney(principal.Add(interest)),
		Comment:       input.Comment,
	}

	simulated := ComputeDebtState(debt, append(sortPayments(payments), payment), paymentDate)

	return &DebtPaymentResult{
		Payment:  payment,
		State:    simulated,
		IsClosed: debtIsSettled(simulated),
	}, nil
}

// ApplyDebtPayment is the write path for debt payments. In dry-run mode the
// simulated payment is evaluated and discarded; in commit mode the payment
// row and any is_closed change are persisted in one transaction so they are
// observed together or not at all.
func ApplyDebtPayment(ctx context.Context, debtId int, input *DebtPaymentInput) (*DebtPaymentResult, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	debt, err := utils.FetchModel[models.Debt](ctx, ownerId, debtId, "Payments")
	if err != nil {
		return nil, err
	}
	if debt.IsClosed != nil && *debt.IsClosed {
		return nil, utils.NewValidationError("debt", "debt is already closed")
	}

	result, err := PlanDebtPayment(debt, debt.Payments, input)
	if err != nil {
		return nil, err
	}

	if input.DryRun {
		result.DryRun = true
		return result, nil
	}

	// The commit persists exactly what the plan computed: the post-payment
	// state and closure are both evaluated as of the payment date, so a
	// dry-run and an immediate commit of the same input always agree.
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&result.Payment).Error; err != nil {
			return err
		}

		if result.IsClosed != (debt.IsClosed != nil && *debt.IsClosed) {
			if err := tx.Model(&models.Debt{}).Where("id = ?", debt.ID).
				Update("is_closed", result.IsClosed).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
