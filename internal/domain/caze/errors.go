package caze

import "errors"

var (
	ErrNotFound = errors.New("case not found")

	// ErrAccessDenied is returned when the acting user lacks the right for
	// the operation. It is detected before any mutation.
	ErrAccessDenied = errors.New("access denied")

	// ErrDataIntegrity marks states the engine cannot reconcile, e.g. a
	// pending investigation task on a case whose investigation is closed.
	// It aborts the surrounding transaction.
	ErrDataIntegrity = errors.New("data integrity violation")
)

// ValidationError rejects an operation before anything is persisted. Code is
// a stable machine-readable identifier for the violated rule.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}
