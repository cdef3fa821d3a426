package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
)

// Income is a recurring inflow. NextDate is moved forward by the income
// ticking job each time it is reached; it is never reset backward.
type Income struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OwnerId     string          `gorm:"index;not null" json:"owner_id"`
	Name        string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Periodicity Periodicity     `gorm:"type:enum('monthly', 'quarterly', 'custom_ndays');not null" json:"periodicity" binding:"required"`
	NDays       int             `gorm:"default:0" json:"n_days"`
	NextDate    time.Time       `gorm:"not null" json:"next_date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewIncome struct {
	Name        string          `json:"name" binding:"required"`
	Periodicity Periodicity     `json:"periodicity" binding:"required"`
	NDays       int             `json:"n_days"`
	NextDate    string          `json:"next_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

type UpdateIncomeInput struct {
	Name        string          `json:"name" binding:"required"`
	Periodicity Periodicity     `json:"periodicity" binding:"required"`
	NDays       int             `json:"n_days"`
	NextDate    string          `json:"next_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	IsActive    *bool           `json:"is_active"`
}

// ShiftNextDate advances the income's date by one period.
func (income *Income) ShiftNextDate(from time.Time) time.Time {
	return utils.ShiftDate(from, income.Periodicity.String(), income.NDays)
}

func validateIncomeInput(periodicity Periodicity, nDays int, amount decimal.Decimal) error {
	if !periodicity.IsValid() {
		return utils.NewValidationError("periodicity", "must be one of monthly, quarterly, custom_ndays")
	}
	if periodicity == PeriodicityCustomNDays && nDays < 1 {
		return utils.NewValidationError("n_days", "must be at least 1 for custom_ndays")
	}
	if amount.IsNegative() {
		return utils.NewValidationError("amount", "must be non-negative")
	}
	return nil
}

func CreateIncome(ctx context.Context, input *NewIncome) (*Income, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	if err := validateIncomeInput(input.Periodicity, input.NDays, input.Amount); err != nil {
		return nil, err
	}
	nextDate, err := utils.ParseDate(input.NextDate)
	if err != nil {
		return nil, err
	}

	income := Income{
		OwnerId:     ownerId,
		Name:        input.Name,
		Periodicity: input.Periodicity,
		NDays:       input.NDays,
		NextDate:    nextDate,
		Amount:      utils.RoundMoney(input.Amount),
		IsActive:    utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&income).Error; err != nil {
		return nil, err
	}
	return &income, nil
}

func UpdateIncome(ctx context.Context, id int, input *UpdateIncomeInput) (*Income, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	income, err := utils.FetchModel[Income](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	if err := validateIncomeInput(input.Periodicity, input.NDays, input.Amount); err != nil {
		return nil, err
	}
	nextDate, err := utils.ParseDate(input.NextDate)
	if err != nil {
		return nil, err
	}

	income.Name = input.Name
	income.Periodicity = input.Periodicity
	income.NDays = input.NDays
	income.NextDate = nextDate
	income.Amount = utils.RoundMoney(input.Amount)
	if input.IsActive != nil {
		income.IsActive = input.IsActive
	}

	if err := db.WithContext(ctx).Save(income).Error; err != nil {
		return nil, err
	}
	return income, nil
}

func DeleteIncome(ctx context.Context, id int) (*Income, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	income, err := utils.FetchModel[Income](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(income).Error; err != nil {
		return nil, err
	}
	return income, nil
}

func GetIncomes(ctx context.Context, onlyActive bool) ([]*Income, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	dbCtx := db.WithContext(ctx).Where("owner_id = ?", ownerId)
	if onlyActive {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}

	var results []*Income
	if err := dbCtx.Order("next_date").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
