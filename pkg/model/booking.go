package model

import "time"

const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingNoShow    = "no_show"
)

// Booking is a customer's confirmed seat in a slot. The date, time range
// and exclusive key are snapshotted from the slot and class type at
// booking time, so later admin edits never rewrite booking history. A
// booking with an empty SlotID is detached: its slot was deleted, it
// holds no seat, and it stays that way until reassigned.
type Booking struct {
	ID     string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Code   string `json:"code" bson:"code" validate:"omitempty,len=6,numeric"`
	SlotID string `json:"slot_id,omitempty" bson:"slot_id" validate:"omitempty,mongodb"`

	ClassTypeID  string `json:"class_type_id" bson:"class_type_id" validate:"required,mongodb"`
	ExclusiveKey string `json:"exclusive_key,omitempty" bson:"exclusive_key"`
	DateKey      string `json:"date_key" bson:"date_key" validate:"required,datetime=2006-01-02"`
	StartMin     int    `json:"start_min" bson:"start_min" validate:"min=0,max=1439"`
	EndMin       int    `json:"end_min" bson:"end_min" validate:"min=1,max=1440,gtfield=StartMin"`

	Status string `json:"status" bson:"status" validate:"required,oneof=confirmed cancelled no_show"`

	CustomerName  string `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerPhone string `json:"customer_phone" bson:"customer_phone" validate:"required,e164"`
	CustomerEmail string `json:"customer_email,omitempty" bson:"customer_email" validate:"omitempty,email"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// Detached reports whether the booking lost its slot and holds no seat.
func (b *Booking) Detached() bool {
	return b.SlotID == ""
}

// HoldsLocks reports whether the booking's snapshot contributes to
// exclusivity coverage: confirmed bookings on an exclusive-key class
// type keep their buckets claimed even while detached.
func (b *Booking) HoldsLocks() bool {
	return b.Status == BookingConfirmed && b.ExclusiveKey != ""
}
