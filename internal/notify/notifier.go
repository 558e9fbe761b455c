// Package notify delivers customer-facing booking notifications as
// fire-and-forget events. Nothing here may ever fail a booking
// operation: Dispatch swallows every error by design.
package notify

import (
	"context"

	"corealign/pkg/model"
)

// Event types on the notification stream.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingNoShow    = "booking.no_show"
	EventSlotCancelled    = "slot.cancelled"
)

// BookingEvent is the payload delivery workers (email, WhatsApp)
// consume downstream. FirstTime selects wording for customers with no
// prior booking history.
type BookingEvent struct {
	Type          string `json:"type"`
	BookingID     string `json:"booking_id"`
	BookingCode   string `json:"booking_code"`
	ClassTypeID   string `json:"class_type_id"`
	ClassTypeName string `json:"class_type_name,omitempty"`
	DateKey       string `json:"date_key"`
	StartMin      int    `json:"start_min"`
	EndMin        int    `json:"end_min"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
	FirstTime     bool   `json:"first_time,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Notifier is the sink for booking lifecycle events.
type Notifier interface {
	Send(ctx context.Context, event BookingEvent) error
}

// EventFor builds the common payload for a booking.
func EventFor(eventType string, b *model.Booking) BookingEvent {
	return BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		BookingCode:   b.Code,
		ClassTypeID:   b.ClassTypeID,
		DateKey:       b.DateKey,
		StartMin:      b.StartMin,
		EndMin:        b.EndMin,
		CustomerName:  b.CustomerName,
		CustomerPhone: b.CustomerPhone,
		CustomerEmail: b.CustomerEmail,
	}
}
