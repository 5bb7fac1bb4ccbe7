package domain

import "errors"

var (
	// ErrNotFound is returned when a dataset or scan does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a dataset with the same catalogue ID exists.
	ErrConflict = errors.New("conflict")
)
