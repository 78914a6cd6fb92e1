//go:build windows

package fsops

import (
	"errors"
	"syscall"
)

const (
	errorAccessDenied     = syscall.Errno(5)
	errorNotSameDevice    = syscall.Errno(17)
	errorSharingViolation = syscall.Errno(32)
	errorLockViolation    = syscall.Errno(33)
)

func isTransient(err error) bool {
	return errors.Is(err, errorSharingViolation) ||
		errors.Is(err, errorLockViolation) ||
		errors.Is(err, errorAccessDenied)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, errorNotSameDevice)
}
