// Package domainerrors carries typed error codes across service boundaries.
//
// Services return *Error values so transports can map them to status codes and
// callers can branch on the Code without string matching. Stores never return
// these directly; they return sentinel errors that services translate.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTooManyRequests    Code = "too_many_requests"

	// Ledger rule failures.
	CodeCapacityExceeded   Code = "capacity_exceeded"
	CodeCooldownActive     Code = "cooldown_active"
	CodeNotOwner           Code = "not_owner"
	CodeTierMismatch       Code = "tier_mismatch"
	CodeAlreadyTerminal    Code = "already_terminal"
	CodeListingInactive    Code = "listing_inactive"
	CodeWrongPayment       Code = "wrong_payment"
	CodeStaleListing       Code = "stale_listing"
	CodeInsufficientEscrow Code = "insufficient_escrow"
)

// Error is a coded domain error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// As returns the outermost *Error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the outermost code, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status a transport should return.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput, CodeWrongPayment:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotOwner:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeTierMismatch, CodeAlreadyTerminal, CodeListingInactive,
		CodeStaleListing, CodeInsufficientEscrow, CodeInvariantViolation:
		return http.StatusConflict
	case CodeCapacityExceeded:
		return http.StatusUnprocessableEntity
	case CodeCooldownActive, CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
