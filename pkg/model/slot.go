package model

import "time"

// Slot is one bookable occurrence of a class type: a date plus a
// minute-of-day range with a seat counter. BookedCount moves only
// through the conditional increments in the slot repository, which keep
// 0 <= booked_count <= capacity without application-level locking.
type Slot struct {
	ID          string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClassTypeID string `json:"class_type_id" bson:"class_type_id" validate:"required,mongodb"`
	DateKey     string `json:"date_key" bson:"date_key" validate:"required,datetime=2006-01-02"`
	StartMin    int    `json:"start_min" bson:"start_min" validate:"min=0,max=1439"`
	EndMin      int    `json:"end_min" bson:"end_min" validate:"min=1,max=1440,gtfield=StartMin"`
	BookedCount int    `json:"booked_count" bson:"booked_count" validate:"min=0"`
	Cancelled   bool   `json:"cancelled" bson:"cancelled"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// HasSeats reports whether another booking fits under the given capacity.
// Informational only: the authoritative check is the conditional update.
func (s *Slot) HasSeats(capacity int) bool {
	return !s.Cancelled && s.BookedCount < capacity
}
