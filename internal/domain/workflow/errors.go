package workflow

import "errors"

var (
	// ErrInvalidInput indicates a malformed transition request.
	ErrInvalidInput = errors.New("invalid workflow input")
	// ErrNotPersisted indicates the files moved but the catalog write failed.
	ErrNotPersisted = errors.New("transition applied on disk but not saved to catalog")
)
