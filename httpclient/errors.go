package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates the request deadline passed.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a transport failure (refused, DNS, reset).
	ErrCodeConnection
	// ErrCodeClient indicates a 4xx response.
	ErrCodeClient
	// ErrCodeServer indicates a 5xx response.
	ErrCodeServer
	// ErrCodeInvalid indicates a request that could not be built or a body that could not be read.
	ErrCodeInvalid
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeClient:
		return "client"
	case ErrCodeServer:
		return "server"
	case ErrCodeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is a structured HTTP client error.
type Error struct {
	// StatusCode is the HTTP status code (0 for transport-level errors).
	StatusCode int
	Code       ErrorCode
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Err: err}
}

// NewValidationError creates an error for a request or response that could not be processed.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeInvalid, Message: msg}
}

// ClassifyStatusCode converts a non-2xx status code into an *Error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, _ []byte) *Error {
	code := ErrCodeServer
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode >= 400 && statusCode < 500:
		code = ErrCodeClient
	}
	return &Error{
		StatusCode: statusCode,
		Code:       code,
		Message:    http.StatusText(statusCode),
	}
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsUnavailable reports whether the remote end could not serve the request:
// a timeout, a transport failure or a 5xx response.
func IsUnavailable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == ErrCodeTimeout || e.Code == ErrCodeConnection || e.Code == ErrCodeServer
}
