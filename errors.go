package shortstack

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrIllegalPath is returned when a shortener path fails the slug grammar
	ErrIllegalPath = errors.New("illegal path")
	// ErrUnauthorized is returned when no valid session is present
	ErrUnauthorized = errors.New("unauthorized")
)
