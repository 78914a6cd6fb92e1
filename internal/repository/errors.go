// Package repository holds the sentinel errors shared by storage
// implementations. Domain services translate them into their own errors.
package repository

import "errors"

var (
	// ErrNotFound means no row matched the key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means a unique key (document code, machine, group) is taken.
	ErrDuplicate = errors.New("duplicate entity")

	// ErrForeignKeyViolation means the parent row is missing, such as a
	// group whose machine does not exist.
	ErrForeignKeyViolation = errors.New("foreign key violation")
)
