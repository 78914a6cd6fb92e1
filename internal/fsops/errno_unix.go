//go:build !windows

package fsops

import (
	"errors"
	"syscall"
)

func isTransient(err error) bool {
	return errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETXTBSY) ||
		errors.Is(err, syscall.EACCES)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
