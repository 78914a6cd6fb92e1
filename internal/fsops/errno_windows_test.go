//go:build windows

package fsops

func xdevErrno() error { return errorNotSameDevice }

func busyErrno() error { return errorSharingViolation }
