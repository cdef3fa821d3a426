package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
)

// Transaction carries a non-negative magnitude; the sign lives in IsIncome.
// Adjustment and placeholder rows are engine-written (reconciler and the
// utility placeholder job) and marked so the UI can tell them apart.
type Transaction struct {
	ID              int             `gorm:"primary_key" json:"id"`
	OwnerId         string          `gorm:"index;not null" json:"owner_id"`
	AccountId       int             `gorm:"index;not null" json:"account_id" binding:"required"`
	CategoryId      *int            `gorm:"index" json:"category_id"`
	PaymentId       *int            `gorm:"index" json:"payment_id"`
	AmountAccount   decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"amount_account"`
	IsIncome        *bool           `gorm:"not null;default:false" json:"is_income"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	CurrencyAccount string          `gorm:"size:8;not null" json:"currency_account"`
	Comment         string          `gorm:"size:255" json:"comment"`
	IsAdjustment    *bool           `gorm:"not null;default:false" json:"is_adjustment"`
	IsPlaceholder   *bool           `gorm:"not null;default:false" json:"is_placeholder"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransaction struct {
	AccountId       int             `json:"account_id" binding:"required"`
	CategoryId      *int            `json:"category_id"`
	AmountAccount   decimal.Decimal `json:"amount_account"`
	IsIncome        *bool           `json:"is_income"`
	TransactionDate string          `json:"transaction_date" binding:"required"`
	Comment         string          `json:"comment"`
}

type UpdateTransactionInput struct {
	CategoryId      *int            `json:"category_id"`
	AmountAccount   decimal.Decimal `json:"amount_account"`
	IsIncome        *bool           `json:"is_income"`
	TransactionDate string          `json:"transaction_date" binding:"required"`
	Comment         string          `json:"comment"`
}

func validateTransactionAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return utils.NewValidationError("amount_account", "must be a non-negative magnitude; the sign is carried by is_income")
	}
	return nil
}

// resolveTransactionSign fills IsIncome from the category type when the
// caller did not state it explicitly.
func resolveTransactionSign(ctx context.Context, ownerId string, categoryId *int, isIncome *bool) (*bool, error) {
	if isIncome != nil {
		return isIncome, nil
	}
	if categoryId == nil {
		return utils.NewFalse(), nil
	}
	category, err := utils.FetchModel[Category](ctx, ownerId, *categoryId)
	if err != nil {
		return nil, err
	}
	if category.Type == CategoryTypeIncome {
		return utils.NewTrue(), nil
	}
	return utils.NewFalse(), nil
}

func CreateTransaction(ctx context.Context, input *NewTransaction) (*Transaction, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	if err := validateTransactionAmount(input.AmountAccount); err != nil {
		return nil, err
	}
	transactionDate, err := utils.ParseDate(input.TransactionDate)
	if err != nil {
		return nil, err
	}

	account, err := utils.FetchModel[Account](ctx, ownerId, input.AccountId)
	if err != nil {
		return nil, err
	}
	if input.CategoryId != nil {
		if err := utils.ValidateResourceId[Category](ctx, ownerId, *input.CategoryId); err != nil {
			return nil, err
		}
	}

	isIncome, err := resolveTransactionSign(ctx, ownerId, input.CategoryId, input.IsIncome)
	if err != nil {
		return nil, err
	}

	transaction := Transaction{
		OwnerId:         ownerId,
		AccountId:       input.AccountId,
		CategoryId:      input.CategoryId,
		AmountAccount:   utils.RoundMoney(input.AmountAccount),
		IsIncome:        isIncome,
		TransactionDate: transactionDate,
		CurrencyAccount: account.Currency,
		Comment:         input.Comment,
		IsAdjustment:    utils.NewFalse(),
		IsPlaceholder:   utils.NewFalse(),
	}
	if err := db.WithContext(ctx).Create(&transaction).Error; err != nil {
		return nil, err
	}

	return &transaction, nil
}

func UpdateTransaction(ctx context.Context, id int, input *UpdateTransactionInput) (*Transaction, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	if err := validateTransactionAmount(input.AmountAccount); err != nil {
		return nil, err
	}
	transactionDate, err := utils.ParseDate(input.TransactionDate)
	if err != nil {
		return nil, err
	}

	transaction, err := utils.FetchModel[Transaction](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	if input.CategoryId != nil {
		if err := utils.ValidateResourceId[Category](ctx, ownerId, *input.CategoryId); err != nil {
			return nil, err
		}
	}

	isIncome, err := resolveTransactionSign(ctx, ownerId, input.CategoryId, input.IsIncome)
	if err != nil {
		return nil, err
	}

	transaction.CategoryId = input.CategoryId
	transaction.AmountAccount = utils.RoundMoney(input.AmountAccount)
	transaction.IsIncome = isIncome
	transaction.TransactionDate = transactionDate
	transaction.Comment = input.Comment

	if err := db.WithContext(ctx).Save(transaction).Error; err != nil {
		return nil, err
	}
	return transaction, nil
}

func DeleteTransaction(ctx context.Context, id int) (*Transaction, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	transaction, err := utils.FetchModel[Transaction](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(transaction).Error; err != nil {
		return nil, err
	}
	return transaction, nil
}

func GetTransactions(ctx context.Context, accountId *int, fromDate *string, toDate *string) ([]*Transaction, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	dbCtx := db.WithContext(ctx).Where("owner_id = ?", ownerId)
	if accountId != nil {
		dbCtx = dbCtx.Where("account_id = ?", *accountId)
	}
	if fromDate != nil && *fromDate != "" {
		from, err := utils.ParseDate(*fromDate)
		if err != nil {
			return nil, err
		}
		dbCtx = dbCtx.Where("transaction_date >= ?", from)
	}
	if toDate != nil && *toDate != "" {
		to, err := utils.ParseDate(*toDate)
		if err != nil {
			return nil, err
		}
		dbCtx = dbCtx.Where("transaction_date <= ?", to)
	}

	var results []*Transaction
	if err := dbCtx.Order("transaction_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
