package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
)

// Payment is a recurring obligation. The computed fields (next due date,
// days left, annuity payment, outstanding balance) are derived on every
// read and never persisted, so edits to rate/term/start date take effect
// on the next read.
type Payment struct {
	ID              int             `gorm:"primary_key" json:"id"`
	OwnerId         string          `gorm:"index;not null" json:"owner_id"`
	Type            PaymentType     `gorm:"type:enum('mortgage', 'loan', 'utilities', 'parking_rent', 'mobile', 'subscription');not null" json:"type" binding:"required"`
	Name            string          `gorm:"size:100;not null" json:"name" binding:"required"`
	BillingDay      int             `gorm:"not null;default:1" json:"billing_day"`
	DayOfMonth      *int            `json:"day_of_month"`
	RenewalDate     *time.Time      `json:"renewal_date"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount"`
	PrincipalTotal  decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"principal_total"`
	InterestRateApy decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"interest_rate_apy"`
	TermMonths      int             `gorm:"default:0" json:"term_months"`
	StartDate       *time.Time      `json:"start_date"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	Type            PaymentType     `json:"type" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	BillingDay      int             `json:"billing_day"`
	DayOfMonth      *int            `json:"day_of_month"`
	RenewalDate     *string         `json:"renewal_date"`
	Amount          decimal.Decimal `json:"amount"`
	PrincipalTotal  decimal.Decimal `json:"principal_total"`
	InterestRateApy decimal.Decimal `json:"interest_rate_apy"`
	TermMonths      int             `json:"term_months"`
	StartDate       *string         `json:"start_date"`
}

// UpdatePaymentInput mirrors NewPayment minus the type: a mortgage does not
// become a subscription by edit.
type UpdatePaymentInput struct {
	Name            string          `json:"name" binding:"required"`
	BillingDay      int             `json:"billing_day"`
	DayOfMonth      *int            `json:"day_of_month"`
	RenewalDate     *string         `json:"renewal_date"`
	Amount          decimal.Decimal `json:"amount"`
	PrincipalTotal  decimal.Decimal `json:"principal_total"`
	InterestRateApy decimal.Decimal `json:"interest_rate_apy"`
	TermMonths      int             `json:"term_months"`
	StartDate       *string         `json:"start_date"`
	IsActive        *bool           `json:"is_active"`
}

type PaymentWithComputed struct {
	Payment
	NextDueDate        *time.Time       `json:"next_due_date"`
	DaysLeft           *int             `json:"days_left"`
	AnnuityPayment     *decimal.Decimal `json:"annuity_payment,omitempty"`
	OutstandingBalance *decimal.Decimal `json:"outstanding_balance,omitempty"`
}

// clampBillingDay keeps the target day inside [1, 28] so the candidate date
// exists in every month.
func clampBillingDay(day int) int {
	if day < 1 {
		return 1
	}
	if day > 28 {
		return 28
	}
	return day
}

// ComputeNextDueDate derives the payment's next due date relative to the
// reference date. For every type except subscription the result is never in
// the past; a stale subscription renewal date passes through verbatim so the
// reminder job can detect it.
func ComputeNextDueDate(payment *Payment, reference time.Time) *time.Time {
	reference = utils.TruncateToDay(reference)

	var targetDay int
	switch payment.Type {
	case PaymentTypeSubscription:
		if payment.RenewalDate != nil {
			due := utils.TruncateToDay(*payment.RenewalDate)
			return &due
		}
		targetDay = clampBillingDay(payment.BillingDay)
	case PaymentTypeUtilities:
		targetDay = 1
	case PaymentTypeMortgage, PaymentTypeLoan:
		day := payment.BillingDay
		if payment.DayOfMonth != nil {
			day = *payment.DayOfMonth
		}
		targetDay = clampBillingDay(day)
	default:
		targetDay = clampBillingDay(payment.BillingDay)
	}

	candidate := time.Date(reference.Year(), reference.Month(), targetDay, 0, 0, 0, 0, time.UTC)
	if candidate.Before(reference) {
		candidate = candidate.AddDate(0, 1, 0)
	}
	return &candidate
}

// AttachComputedFields derives the read-model fields for one payment. Loan
// math only applies to mortgage/loan types; everything is recomputed from
// the stored row, never cached.
func AttachComputedFields(payment *Payment, reference time.Time) *PaymentWithComputed {
	result := PaymentWithComputed{Payment: *payment}

	result.NextDueDate = ComputeNextDueDate(payment, reference)
	result.DaysLeft = utils.DaysLeft(result.NextDueDate, reference)

	if payment.Type.IsAmortized() && payment.StartDate != nil && payment.TermMonths > 0 {
		principal := payment.PrincipalTotal.InexactFloat64()
		apy := payment.InterestRateApy.InexactFloat64()
		elapsed := utils.MonthsBetween(*payment.StartDate, reference)

		annuity := utils.MoneyFromFloat(utils.AnnuityPayment(principal, apy, payment.TermMonths))
		outstanding := utils.MoneyFromFloat(utils.AnnuityBalance(principal, apy, payment.TermMonths, elapsed))
		result.AnnuityPayment = &annuity
		result.OutstandingBalance = &outstanding
	}

	return &result
}

func validateNewPayment(paymentType PaymentType, amount decimal.Decimal, principal decimal.Decimal) error {
	if !paymentType.IsValid() {
		return utils.NewValidationError("type", "unknown payment type "+paymentType.String())
	}
	if amount.IsNegative() {
		return utils.NewValidationError("amount", "must be non-negative")
	}
	if principal.IsNegative() {
		return utils.NewValidationError("principal_total", "must be non-negative")
	}
	return nil
}

func parseOptionalDate(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(*s)
	if err != nil {
		return nil, utils.NewValidationError(field, "must be YYYY-MM-DD")
	}
	return &t, nil
}

func CreatePayment(ctx context.Context, input *NewPayment) (*Payment, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	if err := validateNewPayment(input.Type, input.Amount, input.PrincipalTotal); err != nil {
		return nil, err
	}
	renewalDate, err := parseOptionalDate(input.RenewalDate, "renewal_date")
	if err != nil {
		return nil, err
	}
	startDate, err := parseOptionalDate(input.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	if input.Type.IsAmortized() && startDate == nil {
		return nil, utils.NewValidationError("start_date", "required for loans and mortgages")
	}

	payment := Payment{
		OwnerId:         ownerId,
		Type:            input.Type,
		Name:            input.Name,
		BillingDay:      clampBillingDay(input.BillingDay),
		DayOfMonth:      input.DayOfMonth,
		RenewalDate:     renewalDate,
		Amount:          utils.RoundMoney(input.Amount),
		PrincipalTotal:  utils.RoundMoney(input.PrincipalTotal),
		InterestRateApy: input.InterestRateApy,
		TermMonths:      input.TermMonths,
		StartDate:       startDate,
		IsActive:        utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func UpdatePayment(ctx context.Context, id int, input *UpdatePaymentInput) (*Payment, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	payment, err := utils.FetchModel[Payment](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}

	if err := validateNewPayment(payment.Type, input.Amount, input.PrincipalTotal); err != nil {
		return nil, err
	}
	renewalDate, err := parseOptionalDate(input.RenewalDate, "renewal_date")
	if err != nil {
		return nil, err
	}
	startDate, err := parseOptionalDate(input.StartDate, "start_date")
	if err != nil {
		return nil, err
	}

	payment.Name = input.Name
	payment.BillingDay = clampBillingDay(input.BillingDay)
	payment.DayOfMonth = input.DayOfMonth
	payment.RenewalDate = renewalDate
	payment.Amount = utils.RoundMoney(input.Amount)
	payment.PrincipalTotal = utils.RoundMoney(input.PrincipalTotal)
	payment.InterestRateApy = input.InterestRateApy
	payment.TermMonths = input.TermMonths
	if startDate != nil {
		payment.StartDate = startDate
	}
	if input.IsActive != nil {
		payment.IsActive = input.IsActive
	}

	if err := db.WithContext(ctx).Save(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func DeletePayment(ctx context.Context, id int) (*Payment, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	payment, err := utils.FetchModel[Payment](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func GetPayment(ctx context.Context, id int) (*PaymentWithComputed, error) {
	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	payment, err := utils.FetchModel[Payment](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	return AttachComputedFields(payment, time.Now()), nil
}

func GetPayments(ctx context.Context, paymentType *PaymentType) ([]*PaymentWithComputed, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	dbCtx := db.WithContext(ctx).Where("owner_id = ?", ownerId)
	if paymentType != nil {
		dbCtx = dbCtx.Where("type = ?", *paymentType)
	}

	var payments []Payment
	if err := dbCtx.Order("id").Find(&payments).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]*PaymentWithComputed, 0, len(payments))
	for i := range payments {
		results = append(results, AttachComputedFields(&payments[i], now))
	}
	return results, nil
}
