package lock

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates a malformed lock request.
	ErrInvalidInput = errors.New("invalid lock input")
	// ErrHeldByOther indicates another session holds the lock.
	ErrHeldByOther = errors.New("document locked by another session")
)

// HeldError carries the holder of a contended lock.
type HeldError struct {
	Code   string
	Holder Holder
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("document %s locked by %s@%s until %s", e.Code, e.Holder.UserID, e.Holder.Host, e.Holder.ExpiresAt.Format("15:04:05"))
}

func (e *HeldError) Unwrap() error { return ErrHeldByOther }
