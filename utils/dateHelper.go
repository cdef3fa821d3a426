package utils

import (
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate parses a strict ISO YYYY-MM-DD string. Anything else is a
// validation error, not an internal failure.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewValidationError("date", "must be YYYY-MM-DD, got "+s)
	}
	return TruncateToDay(t), nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// TruncateToDay drops the time-of-day component. All day counting in the
// engine happens on midnight-truncated UTC dates.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole days from one date to another, both truncated to
// midnight. Out-of-order inputs clamp to 0 rather than going negative.
func DaysBetween(from time.Time, to time.Time) int {
	days := int(TruncateToDay(to).Sub(TruncateToDay(from)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// DaysLeft counts days from reference to target, both truncated to midnight.
// Negative means the target already passed. Nil target returns nil.
func DaysLeft(target *time.Time, reference time.Time) *int {
	if target == nil {
		return nil
	}
	days := int(TruncateToDay(*target).Sub(TruncateToDay(reference)).Hours() / 24)
	return &days
}

// MonthsBetween counts whole calendar months by year/month subtraction.
// Not day-accurate on purpose: a loan started Jan 31 has 1 month elapsed on
// Feb 1. Negative results clamp to 0.
func MonthsBetween(start time.Time, reference time.Time) int {
	months := (reference.Year()-start.Year())*12 + int(reference.Month()) - int(start.Month())
	if months < 0 {
		return 0
	}
	return months
}

// addMonthsClamped adds calendar months keeping the day-of-month, clamped to
// the target month's last day. Plain AddDate normalizes overflow (Jan 31 plus
// one month becomes Mar 3), which would skip February entirely for month-end
// anchors and permanently drift any date it touches.
func addMonthsClamped(date time.Time, months int) time.Time {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	shifted := first.AddDate(0, months, 0)

	day := date.Day()
	if last := shifted.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(shifted.Year(), shifted.Month(), day,
		date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
}

// ShiftDate advances a date by one period. Month adds clamp to the last day
// of the target month; custom periodicities that would advance by zero or
// negative days are clamped to one day so a simulation cursor always makes
// forward progress.
func ShiftDate(date time.Time, periodicity string, nDays int) time.Time {
	switch periodicity {
	case "quarterly":
		return addMonthsClamped(date, 3)
	case "custom_ndays":
		if nDays < 1 {
			nDays = 1
		}
		return date.AddDate(0, 0, nDays)
	default: // monthly
		return addMonthsClamped(date, 1)
	}
}

// GetMonthRange returns the start and end dates of the month containing t.
func GetMonthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, -1).Add(time.Hour*23 + time.Minute*59 + time.Second*59)
	return start, end
}
