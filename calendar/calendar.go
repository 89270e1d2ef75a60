/*
Package calendar provides the date arithmetic used by the tuition engine.

PURPOSE:
  Attendance is recorded per calendar day and billing runs per calendar
  month. This package owns the two textual encodings used as keys:

  - DayKey:   "<year>-<month0>-<day>" (month is zero-based, no padding).
              This is the format found in stored blobs, so it must not change.
  - MonthKey: "YYYY-MM" (month is one-based, zero-padded). Used to record
              the month in which a payment was made.

  Comparisons never go through the strings: both keys are parsed back into
  numeric year/month values first.

CLOCK:
  Everything that depends on "now" takes it from a Clock, so engine code is
  deterministic under test (see FixedClock).

SEE ALSO:
  - tuition/attendance.go: current-month counting uses YearMonth.Contains
  - tuition/billing.go: rollover compares MonthKeys
*/
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedDayKey is returned when a day-key cannot be parsed.
var ErrMalformedDayKey = errors.New("malformed day key")

// =============================================================================
// DAY KEY
// =============================================================================

// DayKey is the textual encoding of a calendar date.
type DayKey string

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DayKeyOf encodes the calendar date of t in t's own location.
func DayKeyOf(t time.Time) DayKey {
	return DayKeyFor(t.Year(), t.Month(), t.Day())
}

// DayKeyFor encodes an explicit year/month/day triple.
func DayKeyFor(year int, month time.Month, day int) DayKey {
	return DayKey(fmt.Sprintf("%d-%d-%d", year, int(month)-1, day))
}

// ParseDayKey decodes a day-key back into its date.
func ParseDayKey(k DayKey) (Date, error) {
	parts := strings.Split(string(k), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDayKey, string(k))
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrMalformedDayKey, string(k))
		}
		nums[i] = n
	}

	year, month0, day := nums[0], nums[1], nums[2]
	if month0 < 0 || month0 > 11 || day < 1 || day > daysIn(year, time.Month(month0+1)) {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDayKey, string(k))
	}
	return Date{Year: year, Month: time.Month(month0 + 1), Day: day}, nil
}

// Valid reports whether the key parses.
func (k DayKey) Valid() bool {
	_, err := ParseDayKey(k)
	return err == nil
}

func (d Date) Key() DayKey          { return DayKeyFor(d.Year, d.Month, d.Day) }
func (d Date) YearMonth() YearMonth { return YearMonth{Year: d.Year, Month: d.Month} }
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseDate parses an ISO "2006-01-02" date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}

// =============================================================================
// MONTH KEY
// =============================================================================

// MonthKeyOf encodes the year and month of t as "YYYY-MM".
func MonthKeyOf(t time.Time) string {
	return MonthOf(t).Key()
}

// YearMonth is a billing month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) YearMonth { return YearMonth{Year: t.Year(), Month: t.Month()} }

func (ym YearMonth) Key() string { return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month)) }

// Contains reports whether the day-key falls inside this month.
// Malformed keys are never contained.
func (ym YearMonth) Contains(k DayKey) bool {
	d, err := ParseDayKey(k)
	if err != nil {
		return false
	}
	return d.Year == ym.Year && d.Month == ym.Month
}

// Start returns midnight of the first day of the month in loc.
func (ym YearMonth) Start(loc *time.Location) time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, loc)
}

// End returns midnight of the last day of the month in loc.
func (ym YearMonth) End(loc *time.Location) time.Time {
	return ym.Start(loc).AddDate(0, 1, -1)
}

// At returns the given day of the month at hour:00 in loc.
func (ym YearMonth) At(day, hour int, loc *time.Location) time.Time {
	return time.Date(ym.Year, ym.Month, day, hour, 0, 0, 0, loc)
}

func (ym YearMonth) Next() YearMonth {
	return MonthOf(ym.Start(time.UTC).AddDate(0, 1, 0))
}

func (ym YearMonth) Days() int { return daysIn(ym.Year, ym.Month) }

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
