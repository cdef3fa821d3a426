package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
)

// Account stores only the initial balance. The actual balance is always
// derived from the transaction history so the two can never drift apart.
type Account struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OwnerId        string          `gorm:"index;not null" json:"owner_id"`
	Name           string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Currency       string          `gorm:"size:8;not null" json:"currency"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"initial_balance"`
	IsActive       *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	Name           string          `json:"name" binding:"required"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// UpdateAccountInput lists exactly the mutable fields. InitialBalance is
// deliberately absent: changing it would silently rewrite history, the
// reconcile operation is the supported way to move the balance.
type UpdateAccountInput struct {
	Name     string `json:"name" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

type AccountWithBalance struct {
	Account
	ActualBalance decimal.Decimal `json:"actual_balance"`
}

// SignedAmount folds the is_income flag into a signed value. The stored
// amount itself is always a non-negative magnitude.
func signedAmount(t Transaction) decimal.Decimal {
	if t.IsIncome != nil && *t.IsIncome {
		return t.AmountAccount
	}
	return t.AmountAccount.Neg()
}

// SumSignedAmounts derives the actual balance from the initial balance and
// the full transaction history. Pure summation: the result is invariant
// under transaction reordering.
func SumSignedAmounts(initial decimal.Decimal, transactions []Transaction) decimal.Decimal {
	balance := initial
	for _, t := range transactions {
		balance = balance.Add(signedAmount(t))
	}
	return utils.RoundMoney(balance)
}

func CreateAccount(ctx context.Context, input *NewAccount) (*Account, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	currency := input.Currency
	if currency == "" {
		currency = config.BaseCurrency()
	}

	account := Account{
		OwnerId:        ownerId,
		Name:           input.Name,
		Currency:       currency,
		InitialBalance: utils.RoundMoney(input.InitialBalance),
		IsActive:       utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}

	return &account, nil
}

func UpdateAccount(ctx context.Context, id int, input *UpdateAccountInput) (*Account, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	account, err := utils.FetchModel[Account](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}

	account.Name = input.Name
	if input.IsActive != nil {
		account.IsActive = input.IsActive
	}

	if err := db.WithContext(ctx).Save(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func DeleteAccount(ctx context.Context, id int) (*Account, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	account, err := utils.FetchModel[Account](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&Transaction{}).Where("account_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("account", "account has transactions and cannot be deleted")
	}

	if err := db.WithContext(ctx).Delete(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func GetAccount(ctx context.Context, id int) (*AccountWithBalance, error) {
	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	account, err := utils.FetchModel[Account](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}

	balance, err := GetAccountActualBalance(ctx, account)
	if err != nil {
		return nil, err
	}

	return &AccountWithBalance{Account: *account, ActualBalance: balance}, nil
}

func GetAccounts(ctx context.Context) ([]*AccountWithBalance, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	var accounts []Account
	if err := db.WithContext(ctx).Where("owner_id = ?", ownerId).Order("id").Find(&accounts).Error; err != nil {
		return nil, err
	}

	results := make([]*AccountWithBalance, 0, len(accounts))
	for i := range accounts {
		balance, err := GetAccountActualBalance(ctx, &accounts[i])
		if err != nil {
			return nil, err
		}
		results = append(results, &AccountWithBalance{Account: accounts[i], ActualBalance: balance})
	}
	return results, nil
}

// GetAccountActualBalance loads the account's transactions and folds them
// into the derived balance.
func GetAccountActualBalance(ctx context.Context, account *Account) (decimal.Decimal, error) {
	db := config.GetDB()

	var transactions []Transaction
	if err := db.WithContext(ctx).
		Where("owner_id = ? AND account_id = ?", account.OwnerId, account.ID).
		Find(&transactions).Error; err != nil {
		return decimal.Zero, err
	}

	return SumSignedAmounts(account.InitialBalance, transactions), nil
}
