/*
Package reminder derives payment reminders from tuition state.

PURPOSE:
  While a tuition is unpaid, the user is reminded on the first two days of
  the month at 09:00 local time. The reminder set is never diffed: every
  recomputation cancels everything previously scheduled and schedules the
  new set from scratch. That protocol is what keeps reminders free of
  duplicates and stale entries when recomputations interleave.

LAYERS:
  - Plan:       pure function (tuitions, now) -> []Reminder
  - Notifier:   thin side-effecting adapter (OS scheduler, queue, no-op)
  - Scheduler:  cancel-all-then-reschedule on top of a Notifier
  - Queue:      Notifier that can also hand back due reminders
  - Dispatcher: delivers due reminders from a Queue to a Sink

FAILURE MODEL:
  Reminders are best effort. A notifier error is logged and swallowed,
  and ErrPermissionDenied silently turns scheduling into a no-op.

SEE ALSO:
  - tracker: calls Scheduler.Reschedule after payment-affecting changes
  - store/sqlite: durable Queue implementation
*/
package reminder

import (
	"fmt"
	"time"

	"github.com/warp/tuition-engine/calendar"
	"github.com/warp/tuition-engine/tuition"
)

const (
	Title = "💰 Payment Reminder"

	// ReminderHour is the local hour reminders fire at.
	ReminderHour = 9
)

// ReminderDays are the days of the month a reminder is considered for.
var ReminderDays = []int{1, 2}

// Reminder is one notification to fire at a wall-clock time.
type Reminder struct {
	ID        string
	TuitionID string
	Title     string
	Body      string
	FireAt    time.Time
}

// Body returns the reminder text for a tuition name.
func Body(name string) string {
	return fmt.Sprintf("New month started! Don't forget to mark payment for %s.", name)
}

// Plan computes the complete reminder set for list as of now.
//
// For every unpaid tuition and every reminder day d of the current month,
// a reminder at d 09:00 (now's location) is included when now.Day() <= d
// and the fire time is strictly after now. Reminders come out grouped by
// tuition in list order, then by day.
func Plan(list []tuition.Tuition, now time.Time) []Reminder {
	var out []Reminder
	month := calendar.MonthOf(now)

	for _, t := range list {
		if t.PaymentStatus {
			continue
		}
		for _, d := range ReminderDays {
			if now.Day() > d {
				continue
			}
			fireAt := month.At(d, ReminderHour, now.Location())
			if !fireAt.After(now) {
				continue
			}
			out = append(out, Reminder{
				ID:        fmt.Sprintf("%s-%s-%d", t.ID, month.Key(), d),
				TuitionID: t.ID,
				Title:     Title,
				Body:      Body(t.Name),
				FireAt:    fireAt,
			})
		}
	}
	return out
}
