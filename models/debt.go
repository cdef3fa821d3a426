package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Debt is a bilateral obligation. IsClosed is a derived state: the
// amortization engine flips it when both outstanding principal and interest
// due fall within a cent of zero. Storage can reset it directly but the
// engine never reopens a debt on its own.
type Debt struct {
	ID              int             `gorm:"primary_key" json:"id"`
	OwnerId         string          `gorm:"index;not null" json:"owner_id"`
	Counterparty    string          `gorm:"size:100;not null" json:"counterparty" binding:"required"`
	Direction       DebtDirection   `gorm:"type:enum('borrowed', 'lent');not null" json:"direction" binding:"required"`
	PrincipalAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"principal_amount"`
	InterestRateApy decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"interest_rate_apy"`
	StartDate       *time.Time      `json:"start_date"`
	IsClosed        *bool           `gorm:"not null;default:false" json:"is_closed"`
	Comment         string          `gorm:"size:255" json:"comment"`
	Payments        []DebtPayment   `json:"payments,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type DebtPayment struct {
	ID            int             `gorm:"primary_key" json:"id"`
	DebtId        int             `gorm:"index;not null" json:"debt_id"`
	OwnerId       string          `gorm:"index;not null" json:"owner_id"`
	PaymentDate   time.Time       `gorm:"not null" json:"payment_date"`
	PrincipalPaid decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"principal_paid"`
	InterestPaid  decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"interest_paid"`
	AmountTotal   decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount_total"`
	Comment       string          `gorm:"size:255" json:"comment"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDebt struct {
	Counterparty    string          `json:"counterparty" binding:"required"`
	Direction       DebtDirection   `json:"direction" binding:"required"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestRateApy decimal.Decimal `json:"interest_rate_apy"`
	StartDate       *string         `json:"start_date"`
	Comment         string          `json:"comment"`
}

type UpdateDebtInput struct {
	Counterparty    string          `json:"counterparty" binding:"required"`
	InterestRateApy decimal.Decimal `json:"interest_rate_apy"`
	StartDate       *string         `json:"start_date"`
	Comment         string          `json:"comment"`
}

func CreateDebt(ctx context.Context, input *NewDebt) (*Debt, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	if !input.Direction.IsValid() {
		return nil, utils.NewValidationError("direction", "must be one of borrowed, lent")
	}
	if !input.PrincipalAmount.IsPositive() {
		return nil, utils.NewValidationError("principal_amount", "must be positive")
	}
	if input.InterestRateApy.IsNegative() {
		return nil, utils.NewValidationError("interest_rate_apy", "must be non-negative")
	}
	startDate, err := parseOptionalDate(input.StartDate, "start_date")
	if err != nil {
		return nil, err
	}

	debt := Debt{
		OwnerId:         ownerId,
		Counterparty:    input.Counterparty,
		Direction:       input.Direction,
		PrincipalAmount: utils.RoundMoney(input.PrincipalAmount),
		InterestRateApy: input.InterestRateApy,
		StartDate:       startDate,
		IsClosed:        utils.NewFalse(),
		Comment:         input.Comment,
	}
	if err := db.WithContext(ctx).Create(&debt).Error; err != nil {
		return nil, err
	}
	return &debt, nil
}

func UpdateDebt(ctx context.Context, id int, input *UpdateDebtInput) (*Debt, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	debt, err := utils.FetchModel[Debt](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	if input.InterestRateApy.IsNegative() {
		return nil, utils.NewValidationError("interest_rate_apy", "must be non-negative")
	}
	startDate, err := parseOptionalDate(input.StartDate, "start_date")
	if err != nil {
		return nil, err
	}

	debt.Counterparty = input.Counterparty
	debt.InterestRateApy = input.InterestRateApy
	debt.Comment = input.Comment
	if startDate != nil {
		debt.StartDate = startDate
	}

	if err := db.WithContext(ctx).Save(debt).Error; err != nil {
		return nil, err
	}
	return debt, nil
}

func DeleteDebt(ctx context.Context, id int) (*Debt, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	debt, err := utils.FetchModel[Debt](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("debt_id = ?", id).Delete(&DebtPayment{}).Error; err != nil {
			return err
		}
		return tx.Delete(debt).Error
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

func GetDebt(ctx context.Context, id int) (*Debt, error) {
	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	return utils.FetchModel[Debt](ctx, ownerId, id, "Payments")
}

func GetDebts(ctx context.Context, includeClosed bool) ([]*Debt, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	dbCtx := db.WithContext(ctx).Where("owner_id = ?", ownerId).Preload("Payments")
	if !includeClosed {
		dbCtx = dbCtx.Where("is_closed = ?", false)
	}

	var results []*Debt
	if err := dbCtx.Order("id").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
