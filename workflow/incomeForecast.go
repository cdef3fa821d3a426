package workflow

import (
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/models"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	ForecastPeriodMonth = "month"
	ForecastPeriodYear  = "year"
)

type ForecastBucket struct {
	Bucket string          `json:"bucket"`
	Amount decimal.Decimal `json:"amount"`
}

type IncomeForecast struct {
	Period  string           `json:"period"`
	Buckets []ForecastBucket `json:"buckets"`
	Total   decimal.Decimal  `json:"total"`
}

// BuildIncomeForecast projects active recurring incomes over the horizon
// (today + 1 month or + 1 year). A stale next_date is caught up with a local
// simulation cursor; the stored next_date is never touched here, only the
// income ticking job mutates it.
func BuildIncomeForecast(incomes []models.Income, period string, today time.Time) (*IncomeForecast, error) {
	if period != ForecastPeriodMonth && period != ForecastPeriodYear {
		return nil, utils.NewValidationError("period", "must be one of month, year")
	}

	today = utils.TruncateToDay(today)
	var horizon time.Time
	if period == ForecastPeriodMonth {
		horizon = today.AddDate(0, 1, 0)
	} else {
		horizon = today.AddDate(1, 0, 0)
	}

	buckets := make(map[string]decimal.Decimal)
	total := decimal.Zero

	for _, income := range incomes {
		if income.IsActive == nil || !*income.IsActive {
			continue
		}

		cursor := utils.TruncateToDay(income.NextDate)

		// Catch a stale next_date up to today before projecting.
		for cursor.Before(today) {
			next := income.ShiftNextDate(cursor)
			if !next.After(cursor) {
				// Defensive: a periodicity that cannot advance must not loop.
				cursor = horizon.AddDate(0, 0, 1)
				break
			}
			cursor = next
		}

		for !cursor.After(horizon) {
			key := utils.FormatDate(cursor)
			if period == ForecastPeriodYear {
				key = cursor.Format("2006-01")
			}
			buckets[key] = buckets[key].Add(income.Amount)
			total = total.Add(income.Amount)

			next := income.ShiftNextDate(cursor)
			if !next.After(cursor) {
				break
			}
			cursor = next
		}
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := IncomeForecast{
		Period:  period,
		Buckets: make([]ForecastBucket, 0, len(keys)),
		Total:   utils.RoundMoney(total),
	}
	for _, key := range keys {
		result.Buckets = append(result.Buckets, ForecastBucket{
			Bucket: key,
			Amount: utils.RoundMoney(buckets[key]),
		})
	}
	return &result, nil
}
