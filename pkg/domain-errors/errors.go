// Package domainerrors provides coded errors for the engine. Services create
// or wrap errors with a stable code; the transport layer translates codes to
// HTTP statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error class on the wire.
type Code string

const (
	// Ambient codes.
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal_error"

	// Verification-time codes. All recoverable by resubmitting a valid proof.
	CodeScopeMismatch     Code = "scope_mismatch"
	CodeInvalidProof      Code = "invalid_proof"
	CodeAgeBelowThreshold Code = "age_below_threshold"
	CodeCountryForbidden  Code = "country_forbidden"
	CodeScreeningHit      Code = "screening_hit"

	// Registration-time code. Fatal for the (identity, address) pair.
	CodeNullifierReplay Code = "nullifier_replay"

	// Issuance-time codes. Orchestrator errors, retryable after correction.
	CodeNotVerified       Code = "not_verified"
	CodeUnknownAwardType  Code = "unknown_award_type"
	CodeDuplicateIssuance Code = "duplicate_issuance"
	CodeLedgerWriteFail   Code = "ledger_write_failure"
)

// Error is a coded domain error. It may wrap an underlying cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the safe client-facing message from err.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps an error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest, CodeUnknownAwardType:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotVerified:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeNullifierReplay, CodeDuplicateIssuance:
		return http.StatusConflict
	case CodeScopeMismatch, CodeInvalidProof, CodeAgeBelowThreshold,
		CodeCountryForbidden, CodeScreeningHit:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeLedgerWriteFail:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
