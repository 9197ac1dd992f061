package handler

import (
	"errors"
	"net/http"
)

// ErrNilResponse is returned when a handler returns a nil Response.
var ErrNilResponse = errors.New("handler: nil response")

// HTTPError is an error with a status code and a stable machine-readable
// code rendered in the JSON error envelope.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

// WithMessage returns a copy of e with a custom message.
func (e HTTPError) WithMessage(msg string) HTTPError {
	e.Message = msg
	return e
}

var (
	ErrBadRequest   = HTTPError{Status: http.StatusBadRequest, Code: "BadRequest", Message: "bad request"}
	ErrUnauthorized = HTTPError{Status: http.StatusUnauthorized, Code: "Unauthorized", Message: "unauthorized"}
	ErrForbidden    = HTTPError{Status: http.StatusForbidden, Code: "Forbidden", Message: "forbidden"}
	ErrNotFound     = HTTPError{Status: http.StatusNotFound, Code: "NotFound", Message: "not found"}
	ErrInternal     = HTTPError{Status: http.StatusInternalServerError, Code: "InternalError", Message: "internal server error"}
)
