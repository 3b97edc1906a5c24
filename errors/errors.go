// Package errors carries the error bundle shared by the client packages:
// a cause, a human readable message and optional state data captured at
// the error origin.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorBundle creates a new response error
type ErrorBundle struct {
	cause   error
	message string
	data    interface{}
}

// New creates a new response error
func New(cause error, message string, data interface{}) error {
	return &ErrorBundle{
		cause,
		message,
		data,
	}
}

// Data from error origin
func (e ErrorBundle) Data() interface{} {
	return e.data
}

// Cause returns the associated cause
func (e ErrorBundle) Cause() error {
	return e.cause
}

// Unwrap returns the associated cause
func (e ErrorBundle) Unwrap() error {
	return e.cause
}

// Error turns into an error
func (e ErrorBundle) Error() string {
	return e.message
}

// DataToString returns string representation of data
func (e ErrorBundle) DataToString() string {
	if e.data == nil {
		return "no error bundle data"
	}
	b, err := json.Marshal(e.data)
	if err != nil {
		return fmt.Sprintf("error retrieving error bundle data %s", err.Error())
	}
	return string(b)
}

// Wrap wraps an error
func Wrap(cause error, message string) error {
	return &ErrorBundle{
		cause:   cause,
		message: message,
		data:    nil,
	}
}
