package tuition

import (
	"time"

	"github.com/warp/tuition-engine/calendar"
)

// =============================================================================
// PAYMENT LIFECYCLE
// =============================================================================
//
// Two states per tuition: Paid and Unpaid.
//
//   Unpaid --MarkPaid--> Paid       (LastPaidMonth := month of now)
//   Paid --MarkUnpaid--> Unpaid     (LastPaidMonth kept)
//   Paid --Rollover--> Unpaid       (only when LastPaidMonth != month of now)
//
// Rollover is the only automatic transition.

// MarkPaid records payment for the month of now. Re-marking a paid tuition
// only refreshes LastPaidMonth.
func MarkPaid(t Tuition, now time.Time) Tuition {
	t.CompletedDates = t.CompletedDates.Clone()
	t.PaymentStatus = true
	t.LastPaidMonth = calendar.MonthKeyOf(now)
	return t
}

// MarkUnpaid clears the payment flag.
func MarkUnpaid(t Tuition) Tuition {
	t.CompletedDates = t.CompletedDates.Clone()
	t.PaymentStatus = false
	return t
}

// TogglePayment flips between paid and unpaid.
func TogglePayment(t Tuition, now time.Time) Tuition {
	if t.PaymentStatus {
		return MarkUnpaid(t)
	}
	return MarkPaid(t, now)
}

// NeedsRollover reports whether t holds a payment from a month other than now's.
func NeedsRollover(t Tuition, now time.Time) bool {
	return t.PaymentStatus && t.LastPaidMonth != calendar.MonthKeyOf(now)
}

// Rollover clears stale payments. The returned list is a new slice when
// changed is true; otherwise it is list itself.
func Rollover(list []Tuition, now time.Time) (out []Tuition, changed bool) {
	for i, t := range list {
		if !NeedsRollover(t, now) {
			continue
		}
		if !changed {
			out = make([]Tuition, len(list))
			copy(out, list)
			changed = true
		}
		out[i] = MarkUnpaid(t)
	}
	if !changed {
		return list, false
	}
	return out, true
}
