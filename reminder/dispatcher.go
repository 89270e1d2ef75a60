package reminder

import (
	"context"
	"log"
	"time"
)

// Sink is where due reminders end up.
type Sink interface {
	Deliver(ctx context.Context, r Reminder) error
}

// LogSink writes reminders to the standard logger.
type LogSink struct{}

func (LogSink) Deliver(_ context.Context, r Reminder) error {
	log.Printf("[Reminder] %s: %s", r.Title, r.Body)
	return nil
}

// Dispatcher moves due reminders from a Queue to a Sink.
type Dispatcher struct {
	Queue Queue
	Sink  Sink
}

// DeliverDue delivers every reminder due at now and acks the ones that were
// delivered. Undelivered reminders stay queued for the next call.
func (d *Dispatcher) DeliverDue(ctx context.Context, now time.Time) (int, error) {
	due, err := d.Queue.Due(ctx, now)
	if err != nil {
		return 0, err
	}

	var delivered []string
	for _, r := range due {
		if err := d.Sink.Deliver(ctx, r); err != nil {
			log.Printf("[Reminder] Failed to deliver %s: %v", r.ID, err)
			continue
		}
		delivered = append(delivered, r.ID)
	}

	if len(delivered) == 0 {
		return 0, nil
	}
	if err := d.Queue.Ack(ctx, delivered...); err != nil {
		return 0, err
	}
	return len(delivered), nil
}
