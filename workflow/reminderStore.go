package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/models"
)

// GormReminderStore backs ReminderStore with the application database.
type GormReminderStore struct{}

var _ ReminderStore = (*GormReminderStore)(nil)

func (s *GormReminderStore) ActivePayments(ctx context.Context, types ...models.PaymentType) ([]models.Payment, error) {
	db := config.GetDB()

	var payments []models.Payment
	err := db.WithContext(ctx).
		Where("is_active = ? AND type IN ?", true, types).
		Order("owner_id, id").
		Find(&payments).Error
	return payments, err
}

func (s *GormReminderStore) HasMonthPlaceholder(ctx context.Context, ownerId string, paymentId int, month time.Time) (bool, error) {
	db := config.GetDB()
	monthEnd := month.AddDate(0, 1, 0)

	var count int64
	err := db.WithContext(ctx).Model(&models.Transaction{}).
		Where("owner_id = ? AND payment_id = ? AND is_placeholder = ? AND transaction_date >= ? AND transaction_date < ?",
			ownerId, paymentId, true, month, monthEnd).
		Count(&count).Error
	return count > 0, err
}

func (s *GormReminderStore) ClaimPlaceholderKey(ctx context.Context, ownerId string, paymentId int, month time.Time) (bool, error) {
	entityKey := fmt.Sprintf("%d:%s", paymentId, month.Format("2006-01"))
	return models.ClaimIdempotencyKey(ctx, ownerId, "utility-placeholder", entityKey)
}

// DefaultAccount picks the owner's oldest active account as the target for
// generated placeholders.
func (s *GormReminderStore) DefaultAccount(ctx context.Context, ownerId string) (*models.Account, error) {
	db := config.GetDB()

	var account models.Account
	err := db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerId, true).
		Order("id").
		First(&account).Error
	if err != nil {
		return nil, errors.New("owner has no active account for placeholders")
	}
	return &account, nil
}

func (s *GormReminderStore) InsertPlaceholder(ctx context.Context, transaction *models.Transaction) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(transaction).Error
}

func (s *GormReminderStore) GetOrCreateSystemCategory(ctx context.Context, cache *models.SystemCategoryCache, ownerId string, name string, categoryType models.CategoryType) (*models.Category, error) {
	return cache.GetOrCreate(ctx, ownerId, name, categoryType)
}

func (s *GormReminderStore) ActiveIncomes(ctx context.Context) ([]models.Income, error) {
	db := config.GetDB()

	var incomes []models.Income
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("owner_id, id").
		Find(&incomes).Error
	return incomes, err
}

func (s *GormReminderStore) AdvanceIncomeNextDate(ctx context.Context, incomeId int, next time.Time) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&models.Income{}).
		Where("id = ?", incomeId).
		Update("next_date", next).Error
}
