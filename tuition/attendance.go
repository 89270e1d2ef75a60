package tuition

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/tuition-engine/calendar"
)

// =============================================================================
// DERIVED QUERIES
// =============================================================================

// MonthlyLimit is the number of sessions covered by one month's payment.
func MonthlyLimit(t Tuition) int {
	return t.DaysPerWeek * WeeksPerMonth
}

// CurrentMonthCount counts attended days in the calendar month of now.
func CurrentMonthCount(t Tuition, now time.Time) int {
	return t.CompletedDates.CountIn(calendar.MonthOf(now))
}

// IsCheckedOn reports whether date is marked as attended.
func IsCheckedOn(t Tuition, date time.Time) bool {
	return t.CompletedDates.Has(calendar.DayKeyOf(date))
}

// Remaining is the number of days that can still be checked this month
// before the next check triggers an auto-reset.
func Remaining(t Tuition, now time.Time) int {
	r := MonthlyLimit(t) - CurrentMonthCount(t, now)
	if r < 0 {
		return 0
	}
	return r
}

var hundred = decimal.NewFromInt(100)

// Progress is the current month's usage as a percentage of the limit,
// capped at 100 and rounded to two places.
func Progress(t Tuition, now time.Time) decimal.Decimal {
	limit := MonthlyLimit(t)
	if limit <= 0 {
		return decimal.Zero
	}
	pct := decimal.NewFromInt(int64(CurrentMonthCount(t, now))).
		Div(decimal.NewFromInt(int64(limit))).
		Mul(hundred).
		Round(2)
	return decimal.Min(pct, hundred)
}

// =============================================================================
// TOGGLE
// =============================================================================

// ToggleAttendance flips the attended state of date.
//
// Unchecking is unconditional. Checking a new day first compares the number
// of days already attended in the month of now (not the month of date)
// against the monthly limit; if one more would exceed it, every day of the
// current month is discarded before the new day is added.
func ToggleAttendance(t Tuition, date, now time.Time) Tuition {
	key := calendar.DayKeyOf(date)

	if t.CompletedDates.Has(key) {
		t.CompletedDates = t.CompletedDates.Without(key)
		return t
	}

	dates := t.CompletedDates
	if CurrentMonthCount(t, now)+1 > MonthlyLimit(t) {
		dates = dates.WithoutMonth(calendar.MonthOf(now))
	}
	t.CompletedDates = dates.With(key)
	return t
}

// WouldReset reports whether checking date now would trigger an auto-reset.
func WouldReset(t Tuition, date, now time.Time) bool {
	if IsCheckedOn(t, date) {
		return false
	}
	return CurrentMonthCount(t, now)+1 > MonthlyLimit(t)
}
