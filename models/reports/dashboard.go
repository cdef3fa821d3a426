package reports

import (
	"context"
	"errors"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/models"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"bitbucket.org/mmdatafocus/portal_backend/workflow"
	"github.com/shopspring/decimal"
)

// DashboardResponse is the aggregated landing-page payload. Sections the
// owner turned off in their dashboard preference come back nil.
type DashboardResponse struct {
	OwnerName    string                   `json:"owner_name"`
	Accounts     *AccountsSection         `json:"accounts,omitempty"`
	Payments     *PaymentsSection         `json:"payments,omitempty"`
	Debts        *DebtsSection            `json:"debts,omitempty"`
	Forecast     *workflow.IncomeForecast `json:"forecast,omitempty"`
	MonthSummary *MonthSummary            `json:"month_summary"`
	GeneratedAt  time.Time                `json:"generated_at"`
}

type AccountsSection struct {
	Accounts     []*models.AccountWithBalance `json:"accounts"`
	TotalBalance decimal.Decimal              `json:"total_balance"`
}

type PaymentsSection struct {
	Upcoming []*models.PaymentWithComputed `json:"upcoming"`
}

type DebtsSection struct {
	Debts         []*workflow.DebtSummary `json:"debts"`
	TotalBorrowed decimal.Decimal         `json:"total_borrowed"`
	TotalLent     decimal.Decimal         `json:"total_lent"`
}

// MonthSummary totals the current calendar month's booked transactions.
// Placeholders are zero-amount so they never skew the figures.
type MonthSummary struct {
	Month        string          `json:"month"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
}

// GetDashboard assembles the dashboard for the owner in context. Each
// section is pure composition over the existing model and workflow
// functions; nothing here recomputes engine math.
func GetDashboard(ctx context.Context) (*DashboardResponse, error) {
	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	owner, err := models.GetUserByOwnerId(ctx, ownerId)
	if err != nil {
		return nil, err
	}

	preference, err := models.GetDashboardPreference(ctx, ownerId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	response := &DashboardResponse{OwnerName: owner.Name, GeneratedAt: now}

	if utils.DereferencePtr(preference.ShowAccounts) {
		section, err := buildAccountsSection(ctx)
		if err != nil {
			return nil, err
		}
		response.Accounts = section
	}

	if utils.DereferencePtr(preference.ShowPayments) {
		section, err := buildPaymentsSection(ctx)
		if err != nil {
			return nil, err
		}
		response.Payments = section
	}

	if utils.DereferencePtr(preference.ShowDebts) {
		section, err := buildDebtsSection(ctx, now)
		if err != nil {
			return nil, err
		}
		response.Debts = section
	}

	if utils.DereferencePtr(preference.ShowForecast) {
		incomes, err := models.GetIncomes(ctx, true)
		if err != nil {
			return nil, err
		}
		flat := make([]models.Income, 0, len(incomes))
		for i := range incomes {
			flat = append(flat, *incomes[i])
		}
		forecast, err := workflow.BuildIncomeForecast(flat, workflow.ForecastPeriodMonth, now)
		if err != nil {
			return nil, err
		}
		response.Forecast = forecast
	}

	summary, err := buildMonthSummary(ctx, now)
	if err != nil {
		return nil, err
	}
	response.MonthSummary = summary

	return response, nil
}

func buildAccountsSection(ctx context.Context) (*AccountsSection, error) {
	accounts, err := models.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}

	section := &AccountsSection{
		Accounts:     accounts,
		TotalBalance: decimal.Zero,
	}
	for i := range accounts {
		section.TotalBalance = section.TotalBalance.Add(accounts[i].ActualBalance)
	}
	return section, nil
}

func buildPaymentsSection(ctx context.Context) (*PaymentsSection, error) {
	payments, err := models.GetPayments(ctx, nil)
	if err != nil {
		return nil, err
	}

	// Soonest due first; payments with no due date sink to the bottom.
	sort.SliceStable(payments, func(i, j int) bool {
		left, right := payments[i].DaysLeft, payments[j].DaysLeft
		if left == nil {
			return false
		}
		if right == nil {
			return true
		}
		return *left < *right
	})

	return &PaymentsSection{Upcoming: payments}, nil
}

func buildDebtsSection(ctx context.Context, now time.Time) (*DebtsSection, error) {
	debts, err := models.GetDebts(ctx, false)
	if err != nil {
		return nil, err
	}

	section := &DebtsSection{
		Debts:         make([]*workflow.DebtSummary, 0, len(debts)),
		TotalBorrowed: decimal.Zero,
		TotalLent:     decimal.Zero,
	}
	for i := range debts {
		summary := workflow.ExtendDebtWithSummary(debts[i], now)
		section.Debts = append(section.Debts, summary)

		switch debts[i].Direction {
		case models.DebtDirectionBorrowed:
			section.TotalBorrowed = section.TotalBorrowed.Add(summary.TotalDue)
		case models.DebtDirectionLent:
			section.TotalLent = section.TotalLent.Add(summary.TotalDue)
		}
	}
	return section, nil
}

func buildMonthSummary(ctx context.Context, now time.Time) (*MonthSummary, error) {
	monthStart, monthEnd := utils.GetMonthRange(now)
	from := utils.FormatDate(monthStart)
	to := utils.FormatDate(monthEnd)

	transactions, err := models.GetTransactions(ctx, nil, &from, &to)
	if err != nil {
		return nil, err
	}

	summary := &MonthSummary{
		Month:        now.Format("2006-01"),
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for i := range transactions {
		transaction := transactions[i]
		if utils.DereferencePtr(transaction.IsIncome) {
			summary.TotalIncome = summary.TotalIncome.Add(transaction.AmountAccount)
		} else {
			summary.TotalExpense = summary.TotalExpense.Add(transaction.AmountAccount)
		}
	}
	return summary, nil
}
