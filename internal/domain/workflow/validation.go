package workflow

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	minNoteLen = 3
	maxNoteLen = 2000
)

func validateRequest(req *Request) error {
	req.Code = strings.TrimSpace(req.Code)
	req.Note = strings.TrimSpace(req.Note)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Code, validation.Required),
		validation.Field(&req.Note, validation.Required, validation.RuneLength(minNoteLen, maxNoteLen)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if strings.TrimSpace(req.Session.SessionID) == "" {
		return fmt.Errorf("%w: session is required", ErrInvalidInput)
	}
	return nil
}
