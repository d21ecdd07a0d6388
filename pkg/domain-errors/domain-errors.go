package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeInternal     Code = "internal_error"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"

	// CodePermissionDenied marks an admin-only operation attempted by a
	// non-admin caller. Fatal to the call, never retried.
	CodePermissionDenied Code = "permission_denied"

	// CodeTransport marks a failed network call to the ledger, content
	// store, or authenticity oracle. Retryable per the engine's retry
	// policy; surfaced to callers only after retries are exhausted.
	CodeTransport Code = "transport"

	// CodePreconditionFailed marks an attempt to mint on a non-admitted
	// verification outcome. This is an integration error, not a business
	// denial.
	CodePreconditionFailed Code = "precondition_failed"

	// CodePartialIssuance marks the mint-succeeded/record-failed state.
	// The error chain carries the minted token identifier so reconciliation
	// can complete the recording step; it must never be silently dropped.
	CodePartialIssuance Code = "partial_issuance"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		// Preserve the original domain code, update message
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsRetryable reports whether the error represents a transient infrastructure
// fault worth retrying. Business denials and permission failures are final.
func IsRetryable(err error) bool {
	return HasCode(err, CodeTransport) || HasCode(err, CodeTimeout)
}
