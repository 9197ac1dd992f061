package auth

import "errors"

var (
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
	ErrUserExists           = errors.New("auth: user already exists")
	ErrCaptchaFailed        = errors.New("auth: captcha verification failed")
	ErrAccountAlreadyLinked = errors.New("auth: account already linked")
	ErrPermissionDenied     = errors.New("auth: permission denied")
	ErrUserNotFound         = errors.New("auth: user not found")
	ErrAccountNotFound      = errors.New("auth: account not found")
	ErrUnknownProvider      = errors.New("auth: unknown provider")
	ErrLastLoginMethod      = errors.New("auth: cannot remove the only login method")
)

// Session and provider errors.
var (
	ErrTokenInvalid   = errors.New("auth: token invalid")
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrNoSession      = errors.New("auth: no session")
	ErrInvalidCode    = errors.New("auth: invalid provider code")
	ErrNoPrimaryEmail = errors.New("auth: provider returned no verified email")
)
