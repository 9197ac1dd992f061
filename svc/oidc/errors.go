package oidc

import "errors"

var (
	ErrInvalidClient = errors.New("oidc: invalid client")
	ErrInvalidGrant  = errors.New("oidc: invalid grant")
	ErrParamsWrong   = errors.New("oidc: missing or malformed parameters")
	ErrCodeNotFound  = errors.New("oidc: code not found")
	ErrCodeExists    = errors.New("oidc: code already exists")
	ErrAppNotFound   = errors.New("oidc: app not found")
	ErrAppExists     = errors.New("oidc: app already exists")
)
