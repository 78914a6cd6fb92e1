package document

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxDescriptionLen = 500

func validateCreateRequest(req *CreateRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.DocType, validation.Required),
		validation.Field(&req.MMM, validation.Required),
		validation.Field(&req.GGGG, validation.When(req.DocType != DocTypeMachine, validation.Required)),
		validation.Field(&req.Description, validation.Length(0, maxDescriptionLen)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
