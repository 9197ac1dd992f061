package easyauth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("easyauth: invalid config")
	ErrInvalidCode   = errors.New("easyauth: malformed authorization code")
	ErrTokenInvalid  = errors.New("easyauth: id token invalid")
	ErrTokenExpired  = errors.New("easyauth: id token expired")
)

// Error is a failure reported by the identity provider.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("easyauth: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("easyauth: %s (%d)", e.Code, e.Status)
}

// IsCode reports whether err is a provider Error with the given code, such
// as "InvalidGrant".
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
