package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/models"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
)

type sentNotification struct {
	OwnerId  string
	Title    string
	DeepLink string
}

type fakeNotifier struct {
	sent []sentNotification
}

func (n *fakeNotifier) Notify(ctx context.Context, ownerId string, title string, body string, deepLink string) {
	n.sent = append(n.sent, sentNotification{OwnerId: ownerId, Title: title, DeepLink: deepLink})
}

type fakeReminderStore struct {
	payments     []models.Payment
	incomes      []models.Income
	accounts     map[string]*models.Account
	claimed      map[string]bool
	placeholders []models.Transaction
	advanced     map[int]time.Time

	failAccountFor string
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{
		accounts: map[string]*models.Account{},
		claimed:  map[string]bool{},
		advanced: map[int]time.Time{},
	}
}

func (s *fakeReminderStore) ActivePayments(ctx context.Context, types ...models.PaymentType) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range s.payments {
		for _, t := range types {
			if p.Type == t {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (s *fakeReminderStore) HasMonthPlaceholder(ctx context.Context, ownerId string, paymentId int, month time.Time) (bool, error) {
	for _, txn := range s.placeholders {
		if txn.OwnerId == ownerId && txn.PaymentId != nil && *txn.PaymentId == paymentId {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeReminderStore) ClaimPlaceholderKey(ctx context.Context, ownerId string, paymentId int, month time.Time) (bool, error) {
	key := fmt.Sprintf("%s:%d:%s", ownerId, paymentId, month.Format("2006-01"))
	if s.claimed[key] {
		return false, nil
	}
	s.claimed[key] = true
	return true, nil
}

func (s *fakeReminderStore) DefaultAccount(ctx context.Context, ownerId string) (*models.Account, error) {
	if ownerId == s.failAccountFor {
		return nil, errors.New("boom")
	}
	account, ok := s.accounts[ownerId]
	if !ok {
		return nil, errors.New("owner has no active account for placeholders")
	}
	return account, nil
}

func (s *fakeReminderStore) InsertPlaceholder(ctx context.Context, transaction *models.Transaction) error {
	s.placeholders = append(s.placeholders, *transaction)
	return nil
}

func (s *fakeReminderStore) GetOrCreateSystemCategory(ctx context.Context, cache *models.SystemCategoryCache, ownerId string, name string, categoryType models.CategoryType) (*models.Category, error) {
	return &models.Category{ID: 99, OwnerId: ownerId, Name: name, Type: categoryType}, nil
}

func (s *fakeReminderStore) ActiveIncomes(ctx context.Context) ([]models.Income, error) {
	return s.incomes, nil
}

func (s *fakeReminderStore) AdvanceIncomeNextDate(ctx context.Context, incomeId int, next time.Time) error {
	s.advanced[incomeId] = next
	return nil
}

func noopLock(ctx context.Context, ownerId string, jobName string) (func(), error) {
	return func() {}, nil
}

func newTestJobs(store *fakeReminderStore, notifier *fakeNotifier, now time.Time) *ReminderJobs {
	return &ReminderJobs{
		Store:         store,
		Notifier:      notifier,
		Categories:    models.NewSystemCategoryCache(),
		DaysThreshold: 3,
		Now:           func() time.Time { return now },
		OwnerLock:     noopLock,
	}
}

func TestRunUtilityPlaceholders_InsertsOncePerMonth(t *testing.T) {
	now := day(2025, time.January, 15)
	store := newFakeReminderStore()
	store.accounts["owner-1"] = &models.Account{ID: 7, OwnerId: "owner-1", Currency: "RUB"}
	store.payments = []models.Payment{
		{ID: 1, OwnerId: "owner-1", Type: models.PaymentTypeUtilities, Name: "Electricity", IsActive: utils.NewTrue()},
	}
	notifier := &fakeNotifier{}
	jobs := newTestJobs(store, notifier, now)

	for run := 0; run < 2; run++ {
		if err := jobs.RunUtilityPlaceholders(context.Background()); err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
	}

	if len(store.placeholders) != 1 {
		t.Fatalf("expected exactly 1 placeholder after 2 runs, got %d", len(store.placeholders))
	}
	placeholder := store.placeholders[0]
	if !placeholder.AmountAccount.IsZero() {
		t.Fatalf("placeholder amount must be zero, got %s", placeholder.AmountAccount)
	}
	if placeholder.IsPlaceholder == nil || !*placeholder.IsPlaceholder {
		t.Fatalf("placeholder flag not set")
	}
	if placeholder.PaymentId == nil || *placeholder.PaymentId != 1 {
		t.Fatalf("placeholder not linked to payment")
	}
	if placeholder.AccountId != 7 {
		t.Fatalf("placeholder landed on account %d, want 7", placeholder.AccountId)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
}

func TestRunUtilityPlaceholders_OneFailureDoesNotStopBatch(t *testing.T) {
	now := day(2025, time.January, 15)
	store := newFakeReminderStore()
	store.failAccountFor = "owner-broken"
	store.accounts["owner-ok"] = &models.Account{ID: 3, OwnerId: "owner-ok", Currency: "RUB"}
	store.payments = []models.Payment{
		{ID: 1, OwnerId: "owner-broken", Type: models.PaymentTypeUtilities, Name: "Water", IsActive: utils.NewTrue()},
		{ID: 2, OwnerId: "owner-ok", Type: models.PaymentTypeUtilities, Name: "Gas", IsActive: utils.NewTrue()},
	}
	notifier := &fakeNotifier{}
	jobs := newTestJobs(store, notifier, now)

	if err := jobs.RunUtilityPlaceholders(context.Background()); err != nil {
		t.Fatalf("per-item failures must not fail the batch: %v", err)
	}

	if len(store.placeholders) != 1 {
		t.Fatalf("expected the healthy owner's placeholder, got %d", len(store.placeholders))
	}
	if store.placeholders[0].OwnerId != "owner-ok" {
		t.Fatalf("placeholder for wrong owner: %s", store.placeholders[0].OwnerId)
	}
}

func TestRunSubscriptionNotices_ThresholdWindow(t *testing.T) {
	now := day(2025, time.January, 15)
	soon := day(2025, time.January, 16)
	far := day(2025, time.January, 25)
	passed := day(2025, time.January, 10)

	store := newFakeReminderStore()
	store.payments = []models.Payment{
		{ID: 1, OwnerId: "owner-1", Type: models.PaymentTypeSubscription, Name: "Music", RenewalDate: &soon, IsActive: utils.NewTrue()},
		{ID: 2, OwnerId: "owner-1", Type: models.PaymentTypeSubscription, Name: "Cloud", RenewalDate: &far, IsActive: utils.NewTrue()},
		{ID: 3, OwnerId: "owner-1", Type: models.PaymentTypeSubscription, Name: "Lapsed", RenewalDate: &passed, IsActive: utils.NewTrue()},
		{ID: 4, OwnerId: "owner-1", Type: models.PaymentTypeSubscription, Name: "No date", IsActive: utils.NewTrue()},
	}
	notifier := &fakeNotifier{}
	jobs := newTestJobs(store, notifier, now)

	if err := jobs.RunSubscriptionNotices(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d: %+v", len(notifier.sent), notifier.sent)
	}
	if notifier.sent[0].DeepLink != "/payments/1" {
		t.Fatalf("notified the wrong payment: %s", notifier.sent[0].DeepLink)
	}
}

func TestRunLoanNotices_DueWithinThreshold(t *testing.T) {
	now := day(2025, time.January, 15)
	dueSoon := 17
	dueLater := 28

	store := newFakeReminderStore()
	store.payments = []models.Payment{
		{ID: 1, OwnerId: "owner-1", Type: models.PaymentTypeLoan, Name: "Car loan", DayOfMonth: &dueSoon, IsActive: utils.NewTrue()},
		{ID: 2, OwnerId: "owner-1", Type: models.PaymentTypeMortgage, Name: "Mortgage", DayOfMonth: &dueLater, IsActive: utils.NewTrue()},
	}
	notifier := &fakeNotifier{}
	jobs := newTestJobs(store, notifier, now)

	if err := jobs.RunLoanNotices(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	if notifier.sent[0].DeepLink != "/payments/1" {
		t.Fatalf("notified the wrong payment: %s", notifier.sent[0].DeepLink)
	}
}

func TestRunIncomeTicks_AdvancesOnlyDueIncomes(t *testing.T) {
	now := day(2025, time.January, 15)
	store := newFakeReminderStore()
	store.incomes = []models.Income{
		{ID: 1, OwnerId: "owner-1", Name: "Salary", Periodicity: models.PeriodicityMonthly, NextDate: day(2025, time.January, 15), Amount: dec("50000"), IsActive: utils.NewTrue()},
		{ID: 2, OwnerId: "owner-1", Name: "Bonus", Periodicity: models.PeriodicityMonthly, NextDate: day(2025, time.January, 20), Amount: dec("10000"), IsActive: utils.NewTrue()},
	}
	notifier := &fakeNotifier{}
	jobs := newTestJobs(store, notifier, now)

	if err := jobs.RunIncomeTicks(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.advanced) != 1 {
		t.Fatalf("expected 1 advanced income, got %d", len(store.advanced))
	}
	next, ok := store.advanced[1]
	if !ok {
		t.Fatalf("the due income was not advanced")
	}
	if !next.Equal(day(2025, time.February, 15)) {
		t.Fatalf("next date = %s, want 2025-02-15", next)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
}

func TestRunIncomeTicks_MonthEndSalaryKeepsFebruary(t *testing.T) {
	now := day(2025, time.January, 31)
	store := newFakeReminderStore()
	store.incomes = []models.Income{
		{ID: 1, OwnerId: "owner-1", Name: "Salary", Periodicity: models.PeriodicityMonthly, NextDate: day(2025, time.January, 31), Amount: dec("50000"), IsActive: utils.NewTrue()},
	}
	jobs := newTestJobs(store, &fakeNotifier{}, now)

	if err := jobs.RunIncomeTicks(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The persisted advance must clamp to Feb 28, not normalize past
	// February to Mar 3 and drift the anchor for good.
	next, ok := store.advanced[1]
	if !ok {
		t.Fatalf("the due income was not advanced")
	}
	if !next.Equal(day(2025, time.February, 28)) {
		t.Fatalf("next date = %s, want 2025-02-28", next)
	}
}

func TestWithinThreshold(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	cases := []struct {
		daysLeft *int
		want     bool
	}{
		{nil, false},
		{intPtr(-1), false},
		{intPtr(0), true},
		{intPtr(3), true},
		{intPtr(4), false},
	}
	for _, tc := range cases {
		if got := withinThreshold(tc.daysLeft, 3); got != tc.want {
			t.Fatalf("withinThreshold(%v, 3) = %v, want %v", tc.daysLeft, got, tc.want)
		}
	}
}
