package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddMonths adds n months to t, clamping the day to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysInMonth(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// AddPeriods calculates the date landing period number periods after start.
// Always computed from the start date so month-end clamping never drifts.
func AddPeriods(start time.Time, monthsPerPeriod, period int) time.Time {
	return AddMonths(start, monthsPerPeriod*period)
}

// DaysInMonth returns the number of days in t's month
func DaysInMonth(t time.Time) int {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// TruncateToDay drops the time of day, keeping the location
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsDateOverdue checks if a due date lies strictly before the day of now
func IsDateOverdue(dueDate, now time.Time) bool {
	return TruncateToDay(dueDate).Before(TruncateToDay(now))
}

// RoundCurrency rounds to currency minor-unit precision
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinTolerance reports whether a and b differ by at most tolerance
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
