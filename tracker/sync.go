package tracker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/tuition-engine/reminder"
	"github.com/warp/tuition-engine/tuition"
)

// job is one pending background tail: persist a snapshot and, optionally,
// recompute reminders from it.
type job struct {
	list       []tuition.Tuition
	save       bool
	reschedule bool
	now        time.Time
}

// syncer runs persistence and reminder recomputation off the caller's path.
//
// Submissions coalesce: only the latest snapshot is written, and the
// reschedule flag is sticky until a run picks it up. A single worker
// goroutine does all the writing, so an older snapshot can never land
// after a newer one.
type syncer struct {
	repo      *tuition.Repository
	reminders *reminder.Scheduler

	mu      sync.Mutex
	cond    *sync.Cond
	pending *job
	seq     uint64
	done    uint64
	closed  bool

	wake      chan struct{}
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newSyncer(repo *tuition.Repository, reminders *reminder.Scheduler) *syncer {
	s := &syncer{
		repo:      repo,
		reminders: reminders,
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(1)
	go s.run()
	return s
}

// submit queues work for the worker without blocking. After close it
// drops j.
func (s *syncer) submit(j job) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.pending != nil {
		j.save = j.save || s.pending.save
		j.reschedule = j.reschedule || s.pending.reschedule
	}
	s.pending = &j
	s.seq++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// flush blocks until everything submitted so far has been processed. After
// close nothing is outstanding, so it returns at once.
func (s *syncer) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.seq
	for s.done < target {
		s.cond.Wait()
	}
}

// close drains pending work and stops the worker. Later calls are no-ops.
func (s *syncer) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.quit)
		s.wg.Wait()
	})
}

func (s *syncer) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.quit:
			s.drain()
			return
		}
	}
}

func (s *syncer) drain() {
	s.mu.Lock()
	j, seq := s.pending, s.seq
	s.pending = nil
	s.mu.Unlock()

	if j != nil {
		ctx := context.Background()
		if j.save {
			if err := s.repo.Save(ctx, j.list); err != nil {
				log.Printf("[Tracker] Error saving tuitions: %v", err)
			}
		}
		if j.reschedule {
			s.reminders.Reschedule(ctx, j.list, j.now)
		}
	}

	s.mu.Lock()
	s.done = seq
	s.cond.Broadcast()
	s.mu.Unlock()
}
