package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies the failures the checkpoint machinery can produce
type ErrorType string

const (
	ErrorTypeSerialization ErrorType = "serialization"
	ErrorTypeCorruptState  ErrorType = "corrupt_state"
	ErrorTypeStorage       ErrorType = "storage"
	ErrorTypeInvalidName   ErrorType = "invalid_name"
	ErrorTypeNameInUse     ErrorType = "name_in_use"
)

// Error carries a type alongside the message and the underlying cause
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Newf creates an Error with a formatted message
func Newf(errorType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping an underlying cause
func Wrap(err error, errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// Wrapf creates an Error wrapping an underlying cause with a formatted message
func Wrapf(err error, errorType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errorType, Message: fmt.Sprintf(format, args...), Err: err}
}

// IsType reports whether the first *Error in err's chain has the given type
func IsType(err error, errorType ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == errorType
	}
	return false
}
