//go:build !windows

package fsops

import "syscall"

func xdevErrno() error { return syscall.EXDEV }

func busyErrno() error { return syscall.EBUSY }
