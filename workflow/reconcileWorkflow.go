package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/models"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
)

type ReconcileResult struct {
	AccountId     int                 `json:"account_id"`
	ActualBalance decimal.Decimal     `json:"actual_balance"`
	TargetBalance decimal.Decimal     `json:"target_balance"`
	Diff          decimal.Decimal     `json:"diff"`
	Adjustment    *models.Transaction `json:"adjustment,omitempty"`
}

// ComputeAdjustment decides whether a target balance needs an adjustment
// transaction. Differences under a cent are noise, not drift.
func ComputeAdjustment(actual decimal.Decimal, target decimal.Decimal) (amount decimal.Decimal, isIncome bool, needed bool) {
	diff := target.Sub(actual)
	if diff.Abs().LessThan(closureThreshold) {
		return decimal.Zero, false, false
	}
	return utils.RoundMoney(diff.Abs()), diff.IsPositive(), true
}

// ReconcileAccountBalance brings the derived balance of an account to a
// user-declared target by synthesizing exactly one adjustment transaction
// dated today. This is the only place the reconciler writes a transaction.
func ReconcileAccountBalance(ctx context.Context, accountId int, target decimal.Decimal) (*ReconcileResult, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	account, err := utils.FetchModel[models.Account](ctx, ownerId, accountId)
	if err != nil {
		return nil, err
	}

	actual, err := models.GetAccountActualBalance(ctx, account)
	if err != nil {
		return nil, err
	}

	target = utils.RoundMoney(target)
	result := ReconcileResult{
		AccountId:     accountId,
		ActualBalance: actual,
		TargetBalance: target,
		Diff:          target.Sub(actual),
	}

	amount, isIncome, needed := ComputeAdjustment(actual, target)
	if !needed {
		return &result, nil
	}

	adjustment := models.Transaction{
		OwnerId:         ownerId,
		AccountId:       accountId,
		AmountAccount:   amount,
		IsIncome:        &isIncome,
		TransactionDate: utils.TruncateToDay(time.Now()),
		CurrencyAccount: account.Currency,
		Comment:         "balance adjustment",
		IsAdjustment:    utils.NewTrue(),
		IsPlaceholder:   utils.NewFalse(),
	}
	if err := db.WithContext(ctx).Create(&adjustment).Error; err != nil {
		return nil, err
	}

	result.Adjustment = &adjustment
	return &result, nil
}
