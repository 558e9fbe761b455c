package errors

import "errors"

var (
	ErrNotFound  = errors.New("slot not found")
	ErrInvalidID = errors.New("invalid slot ID format")

	// ErrDuplicate signals a slot with the same class type, date and
	// time already exists. Not a conflict: callers treat it as
	// "already exists" and reuse the existing slot.
	ErrDuplicate = errors.New("identical slot already exists")
)
