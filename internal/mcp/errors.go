package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/pdmvault/internal/archive"
	"github.com/rpggio/pdmvault/internal/domain/counter"
	"github.com/rpggio/pdmvault/internal/domain/document"
	"github.com/rpggio/pdmvault/internal/domain/lock"
	"github.com/rpggio/pdmvault/internal/domain/workflow"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var held *lock.HeldError
	switch {
	case errors.As(err, &held):
		return &APIError{Code: "LOCKED", Message: err.Error(), Details: held.Holder, RecoveryHint: "Retry after the holder releases the lock or it expires"}
	case errors.Is(err, lock.ErrHeldByOther):
		return &APIError{Code: "LOCKED", Message: "document locked by another session", RecoveryHint: "Retry later"}
	case errors.Is(err, document.ErrDocumentNotFound):
		return &APIError{Code: "DOCUMENT_NOT_FOUND", Message: "document not found", RecoveryHint: "Check the code spelling or use search_documents"}
	case errors.Is(err, document.ErrDuplicateCode):
		return &APIError{Code: "DUPLICATE_CODE", Message: "document code already exists", RecoveryHint: "Allocate a new sequence"}
	case errors.Is(err, document.ErrCheckedOutByOther):
		return &APIError{Code: "CHECKED_OUT", Message: "document checked out by another user"}
	case errors.Is(err, document.ErrCheckoutNotAllowed):
		return &APIError{Code: "CHECKOUT_NOT_ALLOWED", Message: "checkout not allowed in this state"}
	case errors.Is(err, counter.ErrSequenceExhausted):
		return &APIError{Code: "SEQUENCE_EXHAUSTED", Message: "no sequence numbers left for this scope", RecoveryHint: "Use another group or variant"}
	case errors.Is(err, archive.ErrNotConfigured):
		return &APIError{Code: "ARCHIVE_NOT_CONFIGURED", Message: "archive root not configured", RecoveryHint: "Set PDM_ARCHIVE_ROOT"}
	case errors.Is(err, workflow.ErrNotPersisted):
		return &APIError{Code: "NOT_PERSISTED", Message: err.Error(), RecoveryHint: "Files were moved but the catalog was not updated; check the workflow log"}
	case errors.Is(err, document.ErrInvalidInput),
		errors.Is(err, counter.ErrInvalidInput),
		errors.Is(err, lock.ErrInvalidInput),
		errors.Is(err, workflow.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}
