package idtoken

import "errors"

var (
	ErrTokenInvalid      = errors.New("idtoken: invalid token")
	ErrTokenExpired      = errors.New("idtoken: token expired")
	ErrNoCandidateKeys   = errors.New("idtoken: no usable verification key")
	ErrMissingSigningKey = errors.New("idtoken: missing signing key")
)
