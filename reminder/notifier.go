package reminder

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/warp/tuition-engine/tuition"
)

// ErrPermissionDenied is returned by a Notifier when the user has not
// allowed notifications.
var ErrPermissionDenied = errors.New("notification permission denied")

// =============================================================================
// NOTIFIER - Side-effecting adapter
// =============================================================================

// Notifier schedules reminders with whatever delivers them.
type Notifier interface {
	// CancelAll removes every reminder previously scheduled.
	CancelAll(ctx context.Context) error

	// Schedule registers one reminder.
	Schedule(ctx context.Context, r Reminder) error
}

// Unsupported is the Notifier for platforms without notifications.
// Every call succeeds and does nothing.
type Unsupported struct{}

func (Unsupported) CancelAll(context.Context) error          { return nil }
func (Unsupported) Schedule(context.Context, Reminder) error { return nil }

// =============================================================================
// SCHEDULER - Cancel all, then reschedule
// =============================================================================

// Scheduler recomputes the reminder set on a Notifier.
type Scheduler struct {
	Notifier Notifier
}

func NewScheduler(n Notifier) *Scheduler {
	if n == nil {
		n = Unsupported{}
	}
	return &Scheduler{Notifier: n}
}

// Reschedule cancels every scheduled reminder and schedules Plan(list, now).
// It returns how many reminders were scheduled. Failures are logged, never
// returned.
func (s *Scheduler) Reschedule(ctx context.Context, list []tuition.Tuition, now time.Time) int {
	if err := s.Notifier.CancelAll(ctx); err != nil {
		if !errors.Is(err, ErrPermissionDenied) {
			log.Printf("[Reminder] Failed to cancel reminders: %v", err)
		}
		return 0
	}

	scheduled := 0
	for _, r := range Plan(list, now) {
		if err := s.Notifier.Schedule(ctx, r); err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				log.Println("[Reminder] Notification permission not granted")
				return scheduled
			}
			log.Printf("[Reminder] Failed to schedule %s: %v", r.ID, err)
			continue
		}
		scheduled++
	}
	return scheduled
}
