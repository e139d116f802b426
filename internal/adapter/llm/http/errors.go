package http

import (
	"errors"
	"fmt"
	"net"
)

// ErrorType represents the category of a provider transport failure.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeModelNotFound:
		return "model not found"
	default:
		return "unknown error"
	}
}

// Error is a typed transport error from a provider backend. The core never
// retries; Temporary is a hint for callers deciding whether a rerun could
// succeed.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Temporary  bool
	Provider   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error matching by type for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// StatusError maps an HTTP status code to a typed Error. Providers with
// vendor-specific status codes wrap this with their own cases first.
func StatusError(provider string, statusCode int, message string) *Error {
	switch {
	case statusCode == 401 || statusCode == 403:
		return &Error{Type: ErrTypeAuthentication, Message: message, StatusCode: statusCode, Provider: provider}
	case statusCode == 404:
		return &Error{Type: ErrTypeModelNotFound, Message: message, StatusCode: statusCode, Provider: provider}
	case statusCode == 429:
		return &Error{Type: ErrTypeRateLimit, Message: message, StatusCode: statusCode, Temporary: true, Provider: provider}
	case statusCode == 400:
		return &Error{Type: ErrTypeInvalidRequest, Message: message, StatusCode: statusCode, Provider: provider}
	case statusCode >= 500:
		return &Error{Type: ErrTypeServiceUnavailable, Message: message, StatusCode: statusCode, Temporary: true, Provider: provider}
	default:
		return &Error{Type: ErrTypeUnknown, Message: message, StatusCode: statusCode, Provider: provider}
	}
}

// TransportError wraps a failed request (connection refused, DNS failure,
// timeout) that never produced a status code. Deadline errors are typed as
// timeouts; everything else counts as the service being unavailable.
func TransportError(provider string, err error) *Error {
	errType := ErrTypeServiceUnavailable
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		errType = ErrTypeTimeout
	}
	return &Error{Type: errType, Message: err.Error(), Temporary: true, Provider: provider}
}
