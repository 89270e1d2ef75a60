package reminder

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Queue is a Notifier that keeps reminders until they are due.
type Queue interface {
	Notifier

	// Pending returns every scheduled reminder ordered by fire time.
	Pending(ctx context.Context) ([]Reminder, error)

	// Due returns scheduled reminders whose fire time is not after now.
	Due(ctx context.Context, now time.Time) ([]Reminder, error)

	// Ack removes delivered reminders.
	Ack(ctx context.Context, ids ...string) error
}

// =============================================================================
// MEMORY QUEUE
// =============================================================================

type MemoryQueue struct {
	mu        sync.Mutex
	reminders map[string]Reminder
	denied    bool
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{reminders: make(map[string]Reminder)}
}

// Deny makes Schedule fail with ErrPermissionDenied.
func (q *MemoryQueue) Deny(denied bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.denied = denied
}

func (q *MemoryQueue) CancelAll(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reminders = make(map[string]Reminder)
	return nil
}

func (q *MemoryQueue) Schedule(_ context.Context, r Reminder) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.denied {
		return ErrPermissionDenied
	}
	q.reminders[r.ID] = r
	return nil
}

func (q *MemoryQueue) Pending(context.Context) ([]Reminder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sorted(func(Reminder) bool { return true }), nil
}

func (q *MemoryQueue) Due(_ context.Context, now time.Time) ([]Reminder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sorted(func(r Reminder) bool { return !r.FireAt.After(now) }), nil
}

func (q *MemoryQueue) Ack(_ context.Context, ids ...string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range ids {
		delete(q.reminders, id)
	}
	return nil
}

func (q *MemoryQueue) sorted(keep func(Reminder) bool) []Reminder {
	out := make([]Reminder, 0, len(q.reminders))
	for _, r := range q.reminders {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].FireAt.Before(out[j].FireAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
