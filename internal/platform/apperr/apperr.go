package apperr

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCircuitOpen is returned by a breaker that is failing fast.
	ErrCircuitOpen = errors.New("circuit open")
	// ErrAlreadySet is returned when a one-shot field transition is repeated.
	ErrAlreadySet = errors.New("already set")
)
