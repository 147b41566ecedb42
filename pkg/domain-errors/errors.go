// Package domainerrors defines the error taxonomy shared by services and the
// HTTP boundary. Services return *Error values carrying a Code; transports map
// codes to status codes without inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks bad input shape (missing rejection reason, bad page size).
	CodeValidation Code = "validation_error"
	// CodeInvalidTransition marks an illegal lifecycle change.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeConflict marks a lost concurrent write or a competing review claim.
	CodeConflict Code = "conflict"
	// CodeNotFound marks an unknown document, purpose, or catalog version.
	CodeNotFound Code = "not_found"
	// CodeInvalidType marks a document type unknown to the active catalog.
	CodeInvalidType Code = "invalid_document_type"

	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show to callers unless the
// code is CodeInternal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.Err
			continue
		}
		return false
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
