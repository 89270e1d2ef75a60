package tuition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tuition-engine/calendar"
	"github.com/warp/tuition-engine/tuition"
)

func TestMarkPaid_RecordsMonth(t *testing.T) {
	tu := tuition.MarkPaid(newTuition(2), day(2024, time.May, 15))

	assert.True(t, tu.PaymentStatus)
	assert.Equal(t, "2024-05", tu.LastPaidMonth)
}

func TestMarkUnpaid_KeepsLastPaidMonth(t *testing.T) {
	tu := tuition.MarkPaid(newTuition(2), day(2024, time.May, 15))
	tu = tuition.MarkUnpaid(tu)

	assert.False(t, tu.PaymentStatus)
	assert.Equal(t, "2024-05", tu.LastPaidMonth)
}

func TestTogglePayment_SameTargetIsIdempotent(t *testing.T) {
	now := day(2024, time.May, 15)
	paid := tuition.MarkPaid(newTuition(2), now)
	again := tuition.MarkPaid(paid, now.Add(time.Hour))
	assert.Equal(t, paid.PaymentStatus, again.PaymentStatus)
	assert.Equal(t, paid.LastPaidMonth, again.LastPaidMonth)

	unpaid := tuition.TogglePayment(paid, now)
	assert.False(t, unpaid.PaymentStatus)
	assert.True(t, tuition.TogglePayment(unpaid, now).PaymentStatus)
}

func TestRollover_ClearsPaymentFromPriorMonth(t *testing.T) {
	// GIVEN: Paid on 2024-05-15
	// WHEN: The clock reads 2024-06-02
	// THEN: Payment is cleared, everything else untouched
	paid := tuition.MarkPaid(newTuition(5), day(2024, time.May, 15))
	paid = tuition.ToggleAttendance(paid, day(2024, time.May, 3), day(2024, time.May, 15))
	list := []tuition.Tuition{paid}

	out, changed := tuition.Rollover(list, day(2024, time.June, 2))

	require.True(t, changed)
	assert.False(t, out[0].PaymentStatus)
	assert.Equal(t, "2024-05", out[0].LastPaidMonth)
	assert.Equal(t, 5, out[0].DaysPerWeek)
	assert.Equal(t, paid.CompletedDates, out[0].CompletedDates)
	assert.True(t, list[0].PaymentStatus, "input slice is not modified")
}

func TestRollover_SameMonthAndUnpaidUntouched(t *testing.T) {
	now := day(2024, time.May, 31)
	list := []tuition.Tuition{
		tuition.MarkPaid(newTuition(2), day(2024, time.May, 1)),
		newTuition(3),
	}
	// unpaid with a stale month is already in the right state
	list[1].LastPaidMonth = "2023-01"

	out, changed := tuition.Rollover(list, now)

	assert.False(t, changed)
	assert.Equal(t, list, out)
}

func TestRollover_YearBoundary(t *testing.T) {
	paid := tuition.MarkPaid(newTuition(2), day(2024, time.December, 20))
	assert.False(t, tuition.NeedsRollover(paid, day(2024, time.December, 31)))
	assert.True(t, tuition.NeedsRollover(paid, day(2025, time.January, 1)))
	// same month number a year later still rolls over
	assert.True(t, tuition.NeedsRollover(paid, day(2025, time.December, 20)))
}

func TestRollover_PaidWithEmptyMonth(t *testing.T) {
	// legacy blob: paid, but no month recorded
	tu := newTuition(2)
	tu.PaymentStatus = true

	out, changed := tuition.Rollover([]tuition.Tuition{tu}, day(2024, time.May, 1))
	assert.True(t, changed)
	assert.False(t, out[0].PaymentStatus)
}

func TestWithDaysPerWeek_Validation(t *testing.T) {
	tu := newTuition(2)
	for _, bad := range []int{0, -1, 8} {
		out, err := tuition.WithDaysPerWeek(tu, bad)
		assert.ErrorIs(t, err, tuition.ErrValidation)
		assert.True(t, tuition.IsClientError(err))
		assert.Equal(t, 2, out.DaysPerWeek)
	}

	out, err := tuition.WithDaysPerWeek(tu, 7)
	require.NoError(t, err)
	assert.Equal(t, 28, tuition.MonthlyLimit(out))
}

func TestWithDisplay(t *testing.T) {
	tu := tuition.New("t-1", "Piano", "#FF006E", "star")

	_, err := tuition.WithDisplay(tu, "   ", "", "")
	var vErr *tuition.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	out, err := tuition.WithDisplay(tu, "Violin", "", "heart")
	require.NoError(t, err)
	assert.Equal(t, "Violin", out.Name)
	assert.Equal(t, "#FF006E", out.Color)
	assert.Equal(t, "heart", out.Icon)
}

func TestNew_Defaults(t *testing.T) {
	tu := tuition.New("x", "Chess", "", "")

	assert.Equal(t, tuition.Colors[0], tu.Color)
	assert.Equal(t, tuition.Icons[0], tu.Icon)
	assert.Equal(t, 2, tu.DaysPerWeek)
	assert.False(t, tu.PaymentStatus)
	assert.Empty(t, tu.LastPaidMonth)
	assert.Zero(t, tu.CompletedDates.Len())
}

func TestComputeMarks(t *testing.T) {
	now := day(2024, time.May, 20)
	math := tuition.New("1", "Math", "#FFD700", "calculator")
	math = checkDays(math, now, 1, 2)
	english := tuition.New("2", "English", "#FF6B6B", "book")
	english = checkDays(english, now, 2)
	list := []tuition.Tuition{math, english}

	may2 := calendar.DayKeyOf(day(2024, time.May, 2))

	t.Run("no focus: all tuitions, none glowing", func(t *testing.T) {
		marks := tuition.ComputeMarks(list, nil)
		assert.Len(t, marks, 2)
		assert.Equal(t, []tuition.Mark{
			{TuitionID: "1", Color: "#FFD700"},
			{TuitionID: "2", Color: "#FF6B6B"},
		}, marks[may2])
	})

	t.Run("focus: only the focused tuition, glowing", func(t *testing.T) {
		focus := "2"
		marks := tuition.ComputeMarks(list, &focus)
		assert.Len(t, marks, 1)
		assert.Equal(t, []tuition.Mark{{TuitionID: "2", Color: "#FF6B6B", IsGlowing: true}}, marks[may2])
	})

	t.Run("focus on unknown id: no marks", func(t *testing.T) {
		focus := "missing"
		assert.Empty(t, tuition.ComputeMarks(list, &focus))
	})
}
