package errors

import "errors"

var (
	ErrNotFound  = errors.New("booking not found")
	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrCodeTaken signals a 6-digit booking code collision; the
	// orchestrator regenerates and retries a bounded number of times.
	ErrCodeTaken = errors.New("booking code already in use")

	// ErrBucketHeld signals the unique lock index rejected an insert:
	// the bucket is owned, possibly by another class type.
	ErrBucketHeld = errors.New("exclusivity bucket already held")

	// ErrStaleStatus signals a conditional status transition matched no
	// document: the booking moved out of the expected state concurrently.
	ErrStaleStatus = errors.New("booking not in expected status")
)
