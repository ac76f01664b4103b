// Package apperror defines the error taxonomy shared by the sync client and
// the development backend.
//
// Every error carries a sentinel (checked with errors.Is) and a human-readable
// message. The client-side sentinels map one-to-one onto the failure modes of
// a remote call:
//
//	ErrInvalidURL   the request URL could not be built
//	ErrNetwork      transport failure, no HTTP status was received
//	ErrServer       any status other than 200
//	ErrDecode       the body did not match the expected envelope
//
// Two more are raised locally, before any request is sent:
//
//	ErrAuthRequired a mutating action was attempted without a session
//	ErrInFlight     the same action is already waiting for the server
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")

	ErrInvalidURL   = errors.New("invalid url")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
	ErrDecode       = errors.New("decode error")
	ErrAuth         = errors.New("authentication failed")
	ErrAuthRequired = errors.New("authentication required")
	ErrInFlight     = errors.New("request already in flight")
)

type AppError struct {
	Err        error  // actual error
	Message    string // Human-readable error message
	Field      string // Optional: field causing the error
	StatusCode int    // Optional: HTTP status returned by the backend
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func InvalidURL(raw string, cause error) *AppError {
	return &AppError{
		Err:     ErrInvalidURL,
		Message: fmt.Sprintf("invalid url %q: %v", raw, cause),
	}
}

func Network(cause error) *AppError {
	return &AppError{
		Err:     ErrNetwork,
		Message: fmt.Sprintf("network error: %v", cause),
	}
}

// Server reports a non-200 response. detail is the backend's own message
// (the "detail" field of the body) and may be empty.
func Server(status int, detail string) *AppError {
	msg := fmt.Sprintf("server returned status %d", status)
	if detail != "" {
		msg = detail
	}
	return &AppError{
		Err:        ErrServer,
		Message:    msg,
		StatusCode: status,
	}
}

func Decode(cause error) *AppError {
	return &AppError{
		Err:     ErrDecode,
		Message: fmt.Sprintf("unexpected response format: %v", cause),
	}
}

// AuthFailed carries the backend's login/signup message verbatim.
func AuthFailed(message string, status int) *AppError {
	if message == "" {
		message = "login failed"
	}
	return &AppError{
		Err:        ErrAuth,
		Message:    message,
		StatusCode: status,
	}
}

func AuthRequired(action string) *AppError {
	return &AppError{
		Err:     ErrAuthRequired,
		Message: fmt.Sprintf("login required to %s", action),
	}
}

func InFlight(action string) *AppError {
	return &AppError{
		Err:     ErrInFlight,
		Message: fmt.Sprintf("%s is already in progress", action),
	}
}
