package machine

import "errors"

var (
	// ErrMachineNotFound indicates the machine doesn't exist.
	ErrMachineNotFound = errors.New("machine not found")
	// ErrGroupNotFound indicates the group doesn't exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrAlreadyExists indicates a duplicate machine or group.
	ErrAlreadyExists = errors.New("machine or group already exists")
	// ErrInvalidInput indicates invalid input.
	ErrInvalidInput = errors.New("invalid machine input")
)
