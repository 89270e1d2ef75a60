package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tuition-engine/calendar"
)

func TestDayKeyOf_ZeroBasedMonth(t *testing.T) {
	d := time.Date(2024, time.May, 15, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, calendar.DayKey("2024-4-15"), calendar.DayKeyOf(d))

	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, calendar.DayKey("2025-0-1"), calendar.DayKeyOf(jan))
}

func TestDayKey_RoundTrip(t *testing.T) {
	// Every day of a leap year survives encode -> parse.
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		parsed, err := calendar.ParseDayKey(calendar.DayKeyOf(d))
		require.NoError(t, err)
		assert.Equal(t, d.Year(), parsed.Year)
		assert.Equal(t, d.Month(), parsed.Month)
		assert.Equal(t, d.Day(), parsed.Day)
		assert.Equal(t, calendar.DayKeyOf(d), parsed.Key())
	}
}

func TestParseDayKey_Malformed(t *testing.T) {
	for _, k := range []calendar.DayKey{"", "2024-4", "2024-x-1", "2024-12-1", "2024-1-30", "2023-1-29", "a-b-c"} {
		_, err := calendar.ParseDayKey(k)
		assert.ErrorIs(t, err, calendar.ErrMalformedDayKey, "key %q", k)
		assert.False(t, k.Valid())
	}

	// Feb 29 only exists in leap years.
	_, err := calendar.ParseDayKey("2024-1-29")
	assert.NoError(t, err)
}

func TestMonthKeyOf_Padded(t *testing.T) {
	assert.Equal(t, "2024-05", calendar.MonthKeyOf(time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-12", calendar.MonthKeyOf(time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)))
}

func TestYearMonth_ContainsAndBounds(t *testing.T) {
	may := calendar.YearMonth{Year: 2024, Month: time.May}

	assert.True(t, may.Contains("2024-4-1"))
	assert.True(t, may.Contains("2024-4-31"))
	assert.False(t, may.Contains("2024-5-1"))
	assert.False(t, may.Contains("2023-4-1"))
	assert.False(t, may.Contains("garbage"))

	assert.Equal(t, 31, may.Days())
	assert.Equal(t, 31, may.End(time.UTC).Day())
	assert.Equal(t, calendar.YearMonth{Year: 2025, Month: time.January},
		calendar.YearMonth{Year: 2024, Month: time.December}.Next())
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, time.May, 31, 23, 0, 0, 0, time.UTC)
	c := calendar.NewFixedClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(2 * time.Hour)
	assert.Equal(t, "2024-06", calendar.MonthKeyOf(c.Now()))

	later := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}
