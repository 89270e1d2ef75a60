/*
Package tracker is the session service the presentation layer talks to.

PURPOSE:
  Tracker owns the authoritative, in-memory tuition list and exposes the
  operation set used by screens: load, toggle attendance, toggle payment,
  change the weekly schedule, add/update/remove tuitions, focus a tuition
  for the calendar, and compute calendar marks.

EVENT MODEL:
  Every operation runs to completion under one mutex and replaces the list
  wholesale, so no operation ever observes another one half-applied.
  After the in-memory swap the operation hands the new snapshot to a
  background worker that persists it and, when payment state may have
  changed, recomputes reminders. Callers never wait for either; the
  stored blob is "eventually persisted" and a failed write is only
  logged.

ROLLOVER:
  Stale payments are cleared at Load, after every mutation, and whenever
  CheckRollover is called (the HTTP server does so on a timer). The same
  checks recompute reminders the first time they run in a new month, even
  when no payment changed.

USAGE:
  tr := tracker.New(blobs, tracker.WithNotifier(queue))
  defer tr.Close()
  tr.Load(ctx)
  tr.ToggleAttendance("1", time.Now())

SEE ALSO:
  - tuition: the pure engine every operation delegates to
  - reminder: Plan / Scheduler used by the background worker
*/
package tracker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/warp/tuition-engine/calendar"
	"github.com/warp/tuition-engine/reminder"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// TRACKER
// =============================================================================

type Tracker struct {
	clock calendar.Clock
	repo  *tuition.Repository
	bg    *syncer
	newID func(now time.Time) string

	mu       sync.Mutex
	tuitions []tuition.Tuition
	focus    *string
	loaded   bool

	// month the reminder set was last computed for
	plannedFor calendar.YearMonth
}

// Option configures a Tracker.
type Option func(*config)

type config struct {
	clock    calendar.Clock
	notifier reminder.Notifier
	key      string
	newID    func(time.Time) string
}

// WithClock replaces the wall clock.
func WithClock(c calendar.Clock) Option { return func(cfg *config) { cfg.clock = c } }

// WithNotifier sets where reminders are scheduled. Default: Unsupported.
func WithNotifier(n reminder.Notifier) Option { return func(cfg *config) { cfg.notifier = n } }

// WithStorageKey overrides the blob key.
func WithStorageKey(key string) Option { return func(cfg *config) { cfg.key = key } }

// WithIDGenerator replaces ULID id generation.
func WithIDGenerator(f func(time.Time) string) Option { return func(cfg *config) { cfg.newID = f } }

// New creates a Tracker over a blob store. Call Load before anything else
// and Close when done.
func New(blobs tuition.BlobStore, opts ...Option) *Tracker {
	cfg := config{
		clock:    calendar.SystemClock{},
		notifier: reminder.Unsupported{},
		newID:    newULID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo := tuition.NewRepository(blobs, cfg.key)
	return &Tracker{
		clock:    cfg.clock,
		repo:     repo,
		bg:       newSyncer(repo, reminder.NewScheduler(cfg.notifier)),
		newID:    cfg.newID,
		tuitions: []tuition.Tuition{},
	}
}

func newULID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

// Flush waits until every queued save and reminder recomputation has run.
func (t *Tracker) Flush() { t.bg.flush() }

// Close drains the background worker. After Close, operations still change
// the in-memory list but nothing more is saved or scheduled. Close is
// idempotent.
func (t *Tracker) Close() { t.bg.close() }

// Now returns the tracker's current time.
func (t *Tracker) Now() time.Time { return t.clock.Now() }

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the stored list, falling back to the seed tuitions when nothing
// is stored or the blob cannot be read. Stale payments are cleared and
// reminders are recomputed. Load never fails.
func (t *Tracker) Load(ctx context.Context) []tuition.Tuition {
	list, err := t.repo.Load(ctx)
	saveSeeds := false
	switch {
	case errors.Is(err, tuition.ErrBlobNotFound):
		list = tuition.DefaultTuitions()
		saveSeeds = true
	case err != nil:
		log.Printf("[Tracker] Error loading tuitions: %v", err)
		list = tuition.DefaultTuitions()
	}
	list = dedupe(list)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	list, rolled := tuition.Rollover(list, now)
	t.tuitions = list
	t.focus = nil
	t.loaded = true
	t.plannedFor = calendar.MonthOf(now)

	t.bg.submit(job{
		list:       list,
		save:       saveSeeds || rolled,
		reschedule: rolled || tuition.AnyUnpaid(list),
		now:        now,
	})
	return copyList(list)
}

// dedupe keeps the first record for every id.
func dedupe(list []tuition.Tuition) []tuition.Tuition {
	seen := make(map[string]bool, len(list))
	out := make([]tuition.Tuition, 0, len(list))
	for _, tu := range list {
		if seen[tu.ID] {
			log.Printf("[Tracker] Dropping duplicate tuition id %s", tu.ID)
			continue
		}
		seen[tu.ID] = true
		out = append(out, tu)
	}
	return out
}

// Save queues a write of the current list.
func (t *Tracker) Save() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bg.submit(job{list: t.tuitions, save: true, now: t.clock.Now()})
}

// =============================================================================
// READS
// =============================================================================

// Tuitions returns a snapshot of the list.
func (t *Tracker) Tuitions() []tuition.Tuition {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyList(t.tuitions)
}

// Get returns one tuition.
func (t *Tracker) Get(id string) (tuition.Tuition, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := tuition.Find(t.tuitions, id)
	if i < 0 {
		return tuition.Tuition{}, tuition.ErrTuitionNotFound
	}
	return t.tuitions[i], nil
}

// Loaded reports whether Load has run.
func (t *Tracker) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded
}

func copyList(list []tuition.Tuition) []tuition.Tuition {
	out := make([]tuition.Tuition, len(list))
	copy(out, list)
	return out
}
