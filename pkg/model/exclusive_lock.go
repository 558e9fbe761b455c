package model

import "time"

// ExclusiveLockBucket claims one 5-minute bucket of one date for one
// class type within an exclusive-key group. The unique index on
// (exclusive_key, date_key, bucket) is the arbiter: two class types can
// never hold the same bucket, so overlapping confirmed bookings across
// linked class types are impossible regardless of request interleaving.
type ExclusiveLockBucket struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	ExclusiveKey string    `json:"exclusive_key" bson:"exclusive_key"`
	DateKey      string    `json:"date_key" bson:"date_key"`
	Bucket       int       `json:"bucket" bson:"bucket"`
	ClassTypeID  string    `json:"class_type_id" bson:"class_type_id"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}
