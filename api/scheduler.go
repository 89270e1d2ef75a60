/*
scheduler.go - Background billing scheduler

PURPOSE:
  Periodically clears payments left over from a previous month and
  delivers payment reminders that have come due. Without it a
  long-running server would only notice a new month on the next request.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick: Tracker.CheckRollover (clears stale payments and plans a
    new month's reminders), then Dispatcher.DeliverDue
  - Rollover is idempotent, so overlapping manual triggers are harmless

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewBillingScheduler(tr, dispatcher)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRollover endpoint (manual rollover)
  - reminder/dispatcher.go: Dispatcher
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/tuition-engine/reminder"
	"github.com/warp/tuition-engine/tracker"
)

// BillingScheduler runs rollover and reminder delivery on a timer.
type BillingScheduler struct {
	Tracker       *tracker.Tracker
	Dispatcher    *reminder.Dispatcher // nil disables delivery
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBillingScheduler creates a new scheduler.
func NewBillingScheduler(tr *tracker.Tracker, dispatcher *reminder.Dispatcher) *BillingScheduler {
	return &BillingScheduler{
		Tracker:       tr,
		Dispatcher:    dispatcher,
		CheckInterval: 1 * time.Minute,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (bs *BillingScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	log.Printf("[Scheduler] Started with check interval: %v", bs.CheckInterval)
}

// Stop stops the scheduler.
func (bs *BillingScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		bs.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (bs *BillingScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.checkAndProcess()

	for {
		select {
		case <-bs.ticker.C:
			bs.checkAndProcess()
		case <-bs.stop:
			return
		}
	}
}

// checkAndProcess returns whether a rollover happened and how many
// reminders were delivered.
func (bs *BillingScheduler) checkAndProcess() (bool, int) {
	ctx := context.Background()

	rolled := bs.Tracker.CheckRollover(ctx)
	if rolled {
		log.Printf("[Scheduler] New month %s: cleared last month's payments", bs.Tracker.Now().Format("2006-01"))
	}
	// delivery reads the queue the background worker writes
	bs.Tracker.Flush()

	if bs.Dispatcher == nil {
		return rolled, 0
	}
	delivered, err := bs.Dispatcher.DeliverDue(ctx, bs.Tracker.Now())
	if err != nil {
		log.Printf("[Scheduler] Error delivering reminders: %v", err)
	}
	if delivered > 0 {
		log.Printf("[Scheduler] Delivered %d reminder(s)", delivered)
	}
	return rolled, delivered
}

// RunNow triggers an immediate check (for testing/admin).
func (bs *BillingScheduler) RunNow() (rolled bool, delivered int) {
	return bs.checkAndProcess()
}
