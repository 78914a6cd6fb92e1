package workflow

import "fmt"

// Code classifies a transition result.
type Code string

const (
	CodeOK                   Code = "OK"
	CodeInvalidState         Code = "INVALID_STATE"
	CodeInvalidPriorState    Code = "INVALID_PRIOR_STATE"
	CodeArchiveNotConfigured Code = "ARCHIVE_NOT_CONFIGURED"
	CodeRevisionExists       Code = "REVISION_EXISTS"
	CodeSourceMissing        Code = "SOURCE_MISSING"
	CodeCleanupFailed        Code = "CLEANUP_FAILED"
	CodeIOError              Code = "IO_ERROR"
	CodeLocked               Code = "LOCKED"
)

// Result is the outcome of a transition. OK is the only signal callers may
// use to decide whether the returned document can be persisted.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Code    Code   `json:"code"`
}

func success(format string, args ...any) Result {
	return Result{OK: true, Code: CodeOK, Message: fmt.Sprintf(format, args...)}
}

func failure(code Code, format string, args ...any) Result {
	return Result{OK: false, Code: code, Message: fmt.Sprintf(format, args...)}
}
