// Package apperr defines the error kinds surfaced to API clients and their
// HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

type Kind string

const (
	KindValidation    Kind = "ValidationError"
	KindConflict      Kind = "Conflict"
	KindNotFound      Kind = "NotFound"
	KindUnauthorized  Kind = "Unauthorized"
	KindInvalidToken  Kind = "InvalidToken"
	KindTokenMismatch Kind = "TokenMismatch"
	KindUpload        Kind = "UploadError"
	KindServer        Kind = "ServerError"
)

// Error is a client-facing failure. Err holds the internal cause and is never
// written to a response.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if len(e.Fields) > 0 {
		msg += " (" + strings.Join(e.Fields, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized, KindInvalidToken, KindTokenMismatch:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

func InvalidToken(msg string, cause error) *Error {
	return &Error{Kind: KindInvalidToken, Message: msg, Err: cause}
}

func TokenMismatch(msg string) *Error { return &Error{Kind: KindTokenMismatch, Message: msg} }

func Upload(msg string, cause error) *Error {
	return &Error{Kind: KindUpload, Message: msg, Err: cause}
}

func Server(msg string, cause error) *Error {
	return &Error{Kind: KindServer, Message: msg, Err: cause}
}

// From returns err as an *Error, wrapping anything unknown as a ServerError.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Server("something went wrong", err)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
