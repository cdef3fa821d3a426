package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/models"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
)

// Notifier is the outbound notification collaborator. Fire-and-forget:
// implementations swallow delivery failures.
type Notifier interface {
	Notify(ctx context.Context, ownerId string, title string, body string, deepLink string)
}

// ReminderStore is the persistence surface the scheduled jobs need. The
// narrow interface keeps job semantics testable without a database.
type ReminderStore interface {
	ActivePayments(ctx context.Context, types ...models.PaymentType) ([]models.Payment, error)
	HasMonthPlaceholder(ctx context.Context, ownerId string, paymentId int, month time.Time) (bool, error)
	ClaimPlaceholderKey(ctx context.Context, ownerId string, paymentId int, month time.Time) (bool, error)
	DefaultAccount(ctx context.Context, ownerId string) (*models.Account, error)
	InsertPlaceholder(ctx context.Context, transaction *models.Transaction) error
	GetOrCreateSystemCategory(ctx context.Context, cache *models.SystemCategoryCache, ownerId string, name string, categoryType models.CategoryType) (*models.Category, error)
	ActiveIncomes(ctx context.Context) ([]models.Income, error)
	AdvanceIncomeNextDate(ctx context.Context, incomeId int, next time.Time) error
}

// ReminderJobs runs the four scheduled jobs. Each job is idempotent and
// tolerates partial failure: one entity's error is logged and skipped, never
// batch-fatal. The category cache is scoped to the ReminderJobs value, not a
// package singleton.
type ReminderJobs struct {
	Store         ReminderStore
	Notifier      Notifier
	Categories    *models.SystemCategoryCache
	DaysThreshold int

	// Now and OwnerLock are swappable for tests.
	Now       func() time.Time
	OwnerLock func(ctx context.Context, ownerId string, jobName string) (func(), error)
}

func NewReminderJobs(store ReminderStore, notifier Notifier) *ReminderJobs {
	return &ReminderJobs{
		Store:         store,
		Notifier:      notifier,
		Categories:    models.NewSystemCategoryCache(),
		DaysThreshold: config.ReminderDaysThreshold(),
		Now:           time.Now,
		OwnerLock:     utils.OwnerLock,
	}
}

// RunAll executes the four jobs in sequence. Job-level failures are logged;
// a broken job never prevents the next one from running.
func (j *ReminderJobs) RunAll(ctx context.Context) {
	logger := config.GetLogger()

	if err := j.RunUtilityPlaceholders(ctx); err != nil {
		config.LogError(logger, "reminderJobs.go", "RunAll", "RunUtilityPlaceholders", nil, err)
	}
	if err := j.RunSubscriptionNotices(ctx); err != nil {
		config.LogError(logger, "reminderJobs.go", "RunAll", "RunSubscriptionNotices", nil, err)
	}
	if err := j.RunLoanNotices(ctx); err != nil {
		config.LogError(logger, "reminderJobs.go", "RunAll", "RunLoanNotices", nil, err)
	}
	if err := j.RunIncomeTicks(ctx); err != nil {
		config.LogError(logger, "reminderJobs.go", "RunAll", "RunIncomeTicks", nil, err)
	}
}

// withinThreshold reports whether a days-left value falls in [0, threshold].
// Negative (already passed) and nil (no due date) both miss the window.
func withinThreshold(daysLeft *int, threshold int) bool {
	return daysLeft != nil && *daysLeft >= 0 && *daysLeft <= threshold
}

// incomeDueToday matches the stored next_date against today exactly. A
// missed run does not back-fire old notifications; the forecast catches
// stale dates up separately.
func incomeDueToday(income *models.Income, today time.Time) bool {
	return utils.TruncateToDay(income.NextDate).Equal(utils.TruncateToDay(today))
}

// RunUtilityPlaceholders inserts one zero-amount placeholder transaction per
// active utilities payment per calendar month. Idempotency key:
// (owner, payment, month), backed by an existing-row check plus a durable
// claim so concurrent runs cannot double-insert.
func (j *ReminderJobs) RunUtilityPlaceholders(ctx context.Context) error {
	logger := config.GetLogger()

	payments, err := j.Store.ActivePayments(ctx, models.PaymentTypeUtilities)
	if err != nil {
		return err
	}

	now := j.Now()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	for i := range payments {
		payment := payments[i]

		if err := j.createUtilityPlaceholder(ctx, &payment, month, now); err != nil {
			config.LogError(logger, "reminderJobs.go", "RunUtilityPlaceholders", "createUtilityPlaceholder", payment.ID, err)
			continue
		}
	}
	return nil
}

func (j *ReminderJobs) createUtilityPlaceholder(ctx context.Context, payment *models.Payment, month time.Time, now time.Time) error {
	release, err := j.OwnerLock(ctx, payment.OwnerId, "utility-placeholder")
	if err != nil {
		return err
	}
	defer release()

	exists, err := j.Store.HasMonthPlaceholder(ctx, payment.OwnerId, payment.ID, month)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	claimed, err := j.Store.ClaimPlaceholderKey(ctx, payment.OwnerId, payment.ID, month)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	account, err := j.Store.DefaultAccount(ctx, payment.OwnerId)
	if err != nil {
		return err
	}

	category, err := j.Store.GetOrCreateSystemCategory(ctx, j.Categories, payment.OwnerId, "Utilities", models.CategoryTypeExpense)
	if err != nil {
		return err
	}

	placeholder := models.Transaction{
		OwnerId:         payment.OwnerId,
		AccountId:       account.ID,
		CategoryId:      &category.ID,
		PaymentId:       &payment.ID,
		AmountAccount:   decimal.Zero,
		IsIncome:        utils.NewFalse(),
		TransactionDate: utils.TruncateToDay(now),
		CurrencyAccount: account.Currency,
		Comment:         fmt.Sprintf("%s: enter the amount for %s", payment.Name, month.Format("January 2006")),
		IsAdjustment:    utils.NewFalse(),
		IsPlaceholder:   utils.NewTrue(),
	}
	if err := j.Store.InsertPlaceholder(ctx, &placeholder); err != nil {
		return err
	}

	j.Notifier.Notify(ctx, payment.OwnerId,
		"Utility bill due",
		fmt.Sprintf("A placeholder for %s was added for %s.", payment.Name, month.Format("January 2006")),
		fmt.Sprintf("/payments/%d", payment.ID))
	return nil
}

// RunSubscriptionNotices notifies owners of subscriptions whose renewal date
// is within the threshold of today, inclusive.
func (j *ReminderJobs) RunSubscriptionNotices(ctx context.Context) error {
	payments, err := j.Store.ActivePayments(ctx, models.PaymentTypeSubscription)
	if err != nil {
		return err
	}

	now := j.Now()
	for i := range payments {
		payment := payments[i]
		if payment.RenewalDate == nil {
			continue
		}
		daysLeft := utils.DaysLeft(payment.RenewalDate, now)
		if !withinThreshold(daysLeft, j.DaysThreshold) {
			continue
		}

		j.Notifier.Notify(ctx, payment.OwnerId,
			"Subscription renews soon",
			fmt.Sprintf("%s renews on %s.", payment.Name, utils.FormatDate(*payment.RenewalDate)),
			fmt.Sprintf("/payments/%d", payment.ID))
	}
	return nil
}

// RunLoanNotices notifies owners of loans/mortgages due within the
// threshold, including the annuity payment amount when computable.
func (j *ReminderJobs) RunLoanNotices(ctx context.Context) error {
	payments, err := j.Store.ActivePayments(ctx, models.PaymentTypeMortgage, models.PaymentTypeLoan)
	if err != nil {
		return err
	}

	now := j.Now()
	for i := range payments {
		payment := payments[i]
		computed := models.AttachComputedFields(&payment, now)
		if !withinThreshold(computed.DaysLeft, j.DaysThreshold) {
			continue
		}

		body := fmt.Sprintf("%s payment is due on %s.", payment.Name, utils.FormatDate(*computed.NextDueDate))
		if computed.AnnuityPayment != nil && computed.AnnuityPayment.IsPositive() {
			body = fmt.Sprintf("%s payment of %s is due on %s.",
				payment.Name, computed.AnnuityPayment.StringFixed(2), utils.FormatDate(*computed.NextDueDate))
		}

		j.Notifier.Notify(ctx, payment.OwnerId,
			"Loan payment due",
			body,
			fmt.Sprintf("/payments/%d", payment.ID))
	}
	return nil
}

// RunIncomeTicks advances next_date for every active income due today and
// notifies the owner of the expected inflow. The only job that mutates
// income state; per-owner locking keeps concurrent triggers from
// double-advancing.
func (j *ReminderJobs) RunIncomeTicks(ctx context.Context) error {
	logger := config.GetLogger()

	incomes, err := j.Store.ActiveIncomes(ctx)
	if err != nil {
		return err
	}

	today := j.Now()
	for i := range incomes {
		income := incomes[i]
		if !incomeDueToday(&income, today) {
			continue
		}

		if err := j.tickIncome(ctx, &income, today); err != nil {
			config.LogError(logger, "reminderJobs.go", "RunIncomeTicks", "tickIncome", income.ID, err)
			continue
		}
	}
	return nil
}

func (j *ReminderJobs) tickIncome(ctx context.Context, income *models.Income, today time.Time) error {
	release, err := j.OwnerLock(ctx, income.OwnerId, "income-tick")
	if err != nil {
		return err
	}
	defer release()

	next := income.ShiftNextDate(utils.TruncateToDay(today))
	if err := j.Store.AdvanceIncomeNextDate(ctx, income.ID, next); err != nil {
		return err
	}

	j.Notifier.Notify(ctx, income.OwnerId,
		"Income expected today",
		fmt.Sprintf("%s of %s is expected today. Next on %s.",
			income.Name, income.Amount.StringFixed(2), utils.FormatDate(next)),
		fmt.Sprintf("/incomes/%d", income.ID))
	return nil
}
