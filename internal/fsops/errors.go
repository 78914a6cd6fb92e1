package fsops

import (
	"fmt"
	"io/fs"

	"gitlab.com/tozd/go/errors"
)

// Kind tags a filesystem failure so callers can match on it.
type Kind int

const (
	KindOther Kind = iota
	KindAlreadyExists
	KindSourceMissing
	KindTransient
	KindCrossDevice
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyExists:
		return "already exists"
	case KindSourceMissing:
		return "source missing"
	case KindTransient:
		return "file in use"
	case KindCrossDevice:
		return "cross-device"
	}
	return "io error"
}

// Sentinels matched through errors.Is on an *OpError.
var (
	ErrAlreadyExists = errors.Base("destination already exists")
	ErrSourceMissing = errors.Base("source missing")
	ErrTransient     = errors.Base("file in use")
	ErrCrossDevice   = errors.Base("cross-device move")
)

// OpError describes a failed primitive.
type OpError struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *OpError) Is(target error) bool {
	switch e.Kind {
	case KindAlreadyExists:
		return target == ErrAlreadyExists
	case KindSourceMissing:
		return target == ErrSourceMissing
	case KindTransient:
		return target == ErrTransient
	case KindCrossDevice:
		return target == ErrCrossDevice
	}
	return false
}

// KindOf returns the kind of err, or KindOther.
func KindOf(err error) Kind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	switch {
	case err == nil:
		return KindOther
	case isCrossDevice(err):
		return KindCrossDevice
	case isTransient(err):
		return KindTransient
	case errors.Is(err, fs.ErrExist):
		return KindAlreadyExists
	case errors.Is(err, fs.ErrNotExist):
		return KindSourceMissing
	}
	return KindOther
}

func newOpError(op, path string, err error) error {
	return errors.WithStack(&OpError{Op: op, Path: path, Kind: classify(err), Err: err})
}

func kindError(op, path string, kind Kind, err error) error {
	return errors.WithStack(&OpError{Op: op, Path: path, Kind: kind, Err: err})
}
