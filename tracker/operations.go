package tracker

import (
	"context"
	"time"

	"github.com/warp/tuition-engine/calendar"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// MUTATIONS
// =============================================================================

// commit installs list as the new snapshot, clears stale payments and
// queues the background tail. Callers hold t.mu.
func (t *Tracker) commit(list []tuition.Tuition, now time.Time, reschedule bool) {
	list, rolled := tuition.Rollover(list, now)
	t.tuitions = list
	reschedule = t.replan(now, reschedule || rolled)
	t.bg.submit(job{list: list, save: true, reschedule: reschedule, now: now})
}

// replan reports whether reminders must be recomputed at now: when asked
// to, or when now is in a month they were not yet computed for.
// Callers hold t.mu.
func (t *Tracker) replan(now time.Time, reschedule bool) bool {
	month := calendar.MonthOf(now)
	if month != t.plannedFor {
		reschedule = true
	}
	if reschedule {
		t.plannedFor = month
	}
	return reschedule
}

// update applies fn to one tuition as a single event.
func (t *Tracker) update(id string, reschedule bool, fn func(tuition.Tuition, time.Time) (tuition.Tuition, error)) (tuition.Tuition, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := tuition.Find(t.tuitions, id)
	if i < 0 {
		return tuition.Tuition{}, tuition.ErrTuitionNotFound
	}

	now := t.clock.Now()
	updated, err := fn(t.tuitions[i], now)
	if err != nil {
		return tuition.Tuition{}, err
	}
	t.commit(tuition.Replace(t.tuitions, i, updated), now, reschedule)
	return t.tuitions[i], nil
}

// ToggleAttendance flips attendance of date for one tuition.
func (t *Tracker) ToggleAttendance(id string, date time.Time) (tuition.Tuition, error) {
	return t.update(id, false, func(tu tuition.Tuition, now time.Time) (tuition.Tuition, error) {
		return tuition.ToggleAttendance(tu, date, now), nil
	})
}

// TogglePayment flips the payment flag and recomputes reminders.
func (t *Tracker) TogglePayment(id string) (tuition.Tuition, error) {
	return t.update(id, true, func(tu tuition.Tuition, now time.Time) (tuition.Tuition, error) {
		return tuition.TogglePayment(tu, now), nil
	})
}

// MarkPaid sets the payment flag for the current month.
func (t *Tracker) MarkPaid(id string) (tuition.Tuition, error) {
	return t.update(id, true, func(tu tuition.Tuition, now time.Time) (tuition.Tuition, error) {
		return tuition.MarkPaid(tu, now), nil
	})
}

// MarkUnpaid clears the payment flag.
func (t *Tracker) MarkUnpaid(id string) (tuition.Tuition, error) {
	return t.update(id, true, func(tu tuition.Tuition, _ time.Time) (tuition.Tuition, error) {
		return tuition.MarkUnpaid(tu), nil
	})
}

// SetDaysPerWeek changes the weekly schedule, and with it the monthly limit.
func (t *Tracker) SetDaysPerWeek(id string, n int) (tuition.Tuition, error) {
	return t.update(id, false, func(tu tuition.Tuition, _ time.Time) (tuition.Tuition, error) {
		return tuition.WithDaysPerWeek(tu, n)
	})
}

// UpdateTuition changes display fields. Empty color or icon keep the current value.
func (t *Tracker) UpdateTuition(id, name, color, icon string) (tuition.Tuition, error) {
	return t.update(id, true, func(tu tuition.Tuition, _ time.Time) (tuition.Tuition, error) {
		return tuition.WithDisplay(tu, name, color, icon)
	})
}

// AddTuition appends a new unpaid tuition with no attendance.
// An empty name is rejected without touching state.
func (t *Tracker) AddTuition(name, color, icon string) (tuition.Tuition, error) {
	name, err := tuition.ValidateName(name)
	if err != nil {
		return tuition.Tuition{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	id := t.newID(now)
	for tuition.Find(t.tuitions, id) >= 0 {
		id = t.newID(now)
	}
	created := tuition.New(id, name, color, icon)

	list := make([]tuition.Tuition, len(t.tuitions), len(t.tuitions)+1)
	copy(list, t.tuitions)
	t.commit(append(list, created), now, true)
	return created, nil
}

// RemoveTuition deletes a tuition. If it was the focused one, the focus clears.
func (t *Tracker) RemoveTuition(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	list, found := tuition.Remove(t.tuitions, id)
	if !found {
		return tuition.ErrTuitionNotFound
	}
	if t.focus != nil && *t.focus == id {
		t.focus = nil
	}
	t.commit(list, t.clock.Now(), true)
	return nil
}

// CheckRollover clears payments left over from a previous month and, on the
// first call in a new month, recomputes that month's reminders. It reports
// whether any payment was cleared. Before Load it does nothing.
func (t *Tracker) CheckRollover(_ context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loaded {
		return false
	}
	now := t.clock.Now()
	list, rolled := tuition.Rollover(t.tuitions, now)
	if !t.replan(now, rolled) {
		return false
	}
	t.tuitions = list
	t.bg.submit(job{list: list, save: rolled, reschedule: true, now: now})
	return rolled
}

// =============================================================================
// FOCUS & MARKS
// =============================================================================

// Focus returns the focused tuition id, if any.
func (t *Tracker) Focus() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.focus == nil {
		return "", false
	}
	return *t.focus, true
}

// SetFocus restricts calendar marks to one tuition.
func (t *Tracker) SetFocus(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tuition.Find(t.tuitions, id) < 0 {
		return tuition.ErrTuitionNotFound
	}
	t.focus = &id
	return nil
}

// ToggleFocus focuses id, or clears the focus if id already has it.
// It returns the resulting focus state of id.
func (t *Tracker) ToggleFocus(id string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tuition.Find(t.tuitions, id) < 0 {
		return false, tuition.ErrTuitionNotFound
	}
	if t.focus != nil && *t.focus == id {
		t.focus = nil
		return false, nil
	}
	t.focus = &id
	return true, nil
}

// ClearFocus shows all tuitions again.
func (t *Tracker) ClearFocus() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.focus = nil
}

// Marks computes calendar marks for the current list and focus.
func (t *Tracker) Marks() map[calendar.DayKey][]tuition.Mark {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tuition.ComputeMarks(t.tuitions, t.focus)
}
