package activity

import "errors"

// ErrInvalidInput indicates an entry without an action.
var ErrInvalidInput = errors.New("invalid activity input")
