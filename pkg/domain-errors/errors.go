// Package domainerrors provides coded errors for domain and service layers.
//
// Stores report infrastructure facts via pkg/platform/sentinel; services
// translate those into coded domain errors so transports can map them to
// status codes without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// DomainError carries a machine-readable code alongside a human message.
// The wrapped cause, if any, participates in errors.Is/errors.As chains.
type DomainError struct {
	Code    Code
	Message string
	cause   error
}

// New constructs a DomainError with no underlying cause.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap constructs a DomainError around an underlying cause.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, cause: err}
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.cause
}

// HasCode reports whether err (or anything it wraps) is a DomainError with
// the given code.
func HasCode(err error, code Code) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if de, ok := e.(*DomainError); ok && de.Code == code {
			return true
		}
	}
	return false
}

// Is is shorthand for HasCode; it reads better at call sites that branch on
// a single expected code.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
