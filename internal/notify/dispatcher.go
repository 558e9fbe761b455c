package notify

import (
	"context"
	"time"

	"corealign/pkg/logger"
)

const sendTimeout = 10 * time.Second

// Dispatcher decouples notification delivery from booking state
// transitions: sends run on a detached context in their own goroutine,
// and every error is logged and dropped. A dead broker can slow
// notifications down, never a booking.
type Dispatcher struct {
	notifier Notifier
	log      *logger.Logger
}

func NewDispatcher(notifier Notifier, log *logger.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, log: log}
}

// Dispatch fires the event and returns immediately. The request context
// is deliberately not used: the booking is already committed, and its
// notification should not die with the request.
func (d *Dispatcher) Dispatch(event BookingEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := d.notifier.Send(ctx, event); err != nil {
			d.log.Warn("Notification dispatch failed",
				"type", event.Type,
				"booking_id", event.BookingID,
				"error", err,
			)
		}
	}()
}
