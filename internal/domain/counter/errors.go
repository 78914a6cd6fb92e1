package counter

import "errors"

var (
	// ErrSequenceExhausted indicates the counter reached its range limit.
	ErrSequenceExhausted = errors.New("sequence exhausted")
	// ErrInvalidInput indicates a malformed allocation request.
	ErrInvalidInput = errors.New("invalid allocation input")
)
