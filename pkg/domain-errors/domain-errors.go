package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in ledger terms, not HTTP terms.
type Code string

// Generic codes shared by every layer.
const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
)

// Ledger error kinds. Every rejected ledger operation carries exactly one of these.
const (
	CodeNotAuthorized            Code = "not_authorized"
	CodeInvalidCourseID          Code = "invalid_course_id"
	CodeInvalidScore             Code = "invalid_score"
	CodeInvalidThreshold         Code = "invalid_threshold"
	CodeInvalidProof             Code = "invalid_proof"
	CodeAlreadyVerified          Code = "already_verified"
	CodeNotVerified              Code = "not_verified"
	CodeOracleNotAuthorized      Code = "oracle_not_authorized"
	CodeInvalidUpdateParam       Code = "invalid_update_param"
	CodeMaxVerificationsExceeded Code = "max_verifications_exceeded"
	CodeInvalidVerificationType  Code = "invalid_verification_type"
	CodeInvalidDifficulty        Code = "invalid_difficulty"
	CodeInvalidExpiry            Code = "invalid_expiry"
	CodeInvalidMetadata          Code = "invalid_metadata"
	CodeNftAlreadyIssued         Code = "nft_already_issued"
	CodeTransferFailed           Code = "transfer_failed"
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

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal for errors that carry no domain code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
