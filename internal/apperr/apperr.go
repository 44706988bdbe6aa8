// Package apperr defines the typed error carried through the HTTP pipeline.
//
// An *Error pairs a client-safe message with the numeric HTTP status that the
// centralized error responder should emit. Handlers and middleware construct
// one at the point a precondition fails and hand it to the Gin error chain;
// anything else that reaches the responder is treated as an internal error.
//
// Symbolic codes (CodeFor) are only used by the versioned API error shape:
//
//	{ "error": { "status": 404, "code": "NOT_FOUND", "message": "Task not found" } }
package apperr

import (
	"errors"
	"net/http"
)

// Symbolic error codes returned in versioned error bodies.
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeUnprocessableEntity = "UNPROCESSABLE_ENTITY"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
	CodeUnknownError        = "UNKNOWN_ERROR"
)

// DefaultMessage is used when an error reaches the responder without a message.
const DefaultMessage = "An unknown error occurred"

// Error is an error value carrying a human message and an HTTP status code.
type Error struct {
	// Message is safe to show to API clients.
	Message string `json:"message"`
	// Code is the HTTP status code (e.g. 404).
	Code int `json:"code"`
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// New constructs a typed error with the given message and status code.
func New(message string, code int) *Error {
	return &Error{Message: message, Code: code}
}

// BadRequest returns a 400 error.
func BadRequest(message string) *Error { return New(message, http.StatusBadRequest) }

// NotFound returns a 404 error.
func NotFound(message string) *Error { return New(message, http.StatusNotFound) }

// Unprocessable returns a 422 error.
func Unprocessable(message string) *Error { return New(message, http.StatusUnprocessableEntity) }

// Internal returns a 500 error.
func Internal(message string) *Error { return New(message, http.StatusInternalServerError) }

// StatusOf resolves the status code for err. Typed errors with a zero code and
// untyped errors both resolve to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Code != 0 {
		return e.Code
	}
	return http.StatusInternalServerError
}

// MessageOf resolves the client-visible message for err, falling back to
// DefaultMessage when the error is nil or has no text.
func MessageOf(err error) string {
	if err == nil {
		return DefaultMessage
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message == "" {
			return DefaultMessage
		}
		return e.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultMessage
}

// CodeFor maps an HTTP status code to its symbolic error code.
func CodeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnprocessableEntity:
		return CodeUnprocessableEntity
	case http.StatusInternalServerError:
		return CodeInternalServerError
	default:
		return CodeUnknownError
	}
}
