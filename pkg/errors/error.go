// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, configuration, simulation preconditions, exit legs
//   - Document errors (200-299): Malformed ledger documents and trade segments
//   - Storage errors (300-399): Ledger file read, write and backup failures
//   - Cache errors (400-499): Stats cache refresh failures
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeLegSumExceeded, "exit legs sum to %.2f%%", total)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeLedgerReadFailed, "failed to read ledger", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeNoTrades) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// SegmentError describes a trade segment that could not be turned into a trade record.
// The parser logs these and keeps going; they are never returned to parser callers.
type SegmentError struct {
	Index  int    // Ordinal of the segment inside the trades block
	Header string // First non-blank line of the segment
	Reason string // Human-readable reason
}

// NewSegmentError creates a new SegmentError.
func NewSegmentError(index int, header, reason string) *SegmentError {
	return &SegmentError{
		Index:  index,
		Header: header,
		Reason: reason,
	}
}

// Error implements the error interface.
func (e *SegmentError) Error() string {
	return fmt.Sprintf("[%d] segment %d (%q): %s", ErrCodeMalformedTradeSegment, e.Index, e.Header, e.Reason)
}
