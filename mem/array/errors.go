package array

import "errors"

// Array contract violations panic with an error wrapping one of these.
var (
	// ErrOutOfRange indicates an index or length outside the live elements.
	ErrOutOfRange = errors.New("array: index out of range")

	// ErrEmpty indicates access to the last element of an empty array.
	ErrEmpty = errors.New("array: array is empty")

	// ErrTooLarge indicates a capacity whose power-of-two rounding overflows.
	ErrTooLarge = errors.New("array: capacity too large")
)
