package errs

import (
	"errors"
)

// Code is an error classification shared by the driver, wait and page layers.
type Code string

const (
	InvalidArgument    Code = "invalid_argument"
	NotFound           Code = "not_found"
	NotYetSatisfied    Code = "not_yet_satisfied"
	StaleElement       Code = "stale_element"
	Timeout            Code = "timeout"
	DriverFault        Code = "driver_fault"
	Canceled           Code = "canceled"
	VerificationFailed Code = "verification_failed"
	Unsupported        Code = "unsupported"
	Internal           Code = "internal"
)

// Coder is implemented by errors that carry their own code.
type Coder interface {
	ErrorCode() Code
}

// Error is a coded error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorCode implements Coder.
func (e *Error) ErrorCode() Code {
	if e == nil || e.Code == "" {
		return Internal
	}
	return e.Code
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// CodeOf returns the outermost code in the chain, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded Coder
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return Internal
}

// Is reports whether the outermost code in the chain is code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MessageOf returns the message of the outermost coded error.
// Untyped errors report "internal error".
func MessageOf(err error) string {
	if err == nil {
		return string(Internal)
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return "internal error"
}

// Retryable reports whether a poll that hit this code should keep polling
// rather than fail the wait.
func Retryable(code Code) bool {
	switch code {
	case NotFound, NotYetSatisfied, StaleElement:
		return true
	default:
		return false
	}
}
