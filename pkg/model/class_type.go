package model

import "time"

// ClassType describes one kind of class the studio runs (e.g. Reformer,
// Mat, Tower). Capacity is seats per slot. A non-empty ExclusiveKey links
// this class type to others sharing the key: their confirmed bookings may
// never overlap in time on the same date.
type ClassType struct {
	ID           string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Capacity     int    `json:"capacity" bson:"capacity" validate:"required,min=1,max=50"`
	ExclusiveKey string `json:"exclusive_key,omitempty" bson:"exclusive_key" validate:"omitempty,min=2,max=50"`
	Active       bool   `json:"active" bson:"active"`

	// Auto-cancel policy: a slot with fewer than MinBookings confirmed
	// bookings CutoffHours before start is cancelled by the sweep job.
	// MinBookings 0 disables the policy for this class type.
	MinBookings int `json:"min_bookings" bson:"min_bookings" validate:"min=0,max=50"`
	CutoffHours int `json:"cutoff_hours" bson:"cutoff_hours" validate:"min=0,max=168"`

	DurationMin int       `json:"duration_min" bson:"duration_min" validate:"required,min=5,max=480"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type ClassTypeUpdate struct {
	Name        string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Capacity    *int   `json:"capacity,omitempty" validate:"omitempty,min=1,max=50"`
	Active      *bool  `json:"active,omitempty"`
	MinBookings *int   `json:"min_bookings,omitempty" validate:"omitempty,min=0,max=50"`
	CutoffHours *int   `json:"cutoff_hours,omitempty" validate:"omitempty,min=0,max=168"`
	DurationMin *int   `json:"duration_min,omitempty" validate:"omitempty,min=5,max=480"`
}
