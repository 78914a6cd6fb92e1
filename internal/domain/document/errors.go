package document

import "errors"

var (
	// ErrDocumentNotFound indicates the code is not in the catalog.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid document input")
	// ErrDuplicateCode indicates the generated code already exists.
	ErrDuplicateCode = errors.New("document code already exists")
	// ErrCheckoutNotAllowed indicates the state forbids checkout (REL, OBS).
	ErrCheckoutNotAllowed = errors.New("checkout not allowed in this state")
	// ErrCheckedOutByOther indicates another user holds the checkout.
	ErrCheckedOutByOther = errors.New("document checked out by another user")
	// ErrConflict indicates the row changed between read and write.
	ErrConflict = errors.New("document changed concurrently")
)
