package errors

import "errors"

var (
	ErrNotFound  = errors.New("class type not found")
	ErrInvalidID = errors.New("invalid class type ID format")
)
