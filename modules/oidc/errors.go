package oidc

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/easyauth/handler"
	"github.com/dmitrymomot/easyauth/pkg/binder"
	"github.com/dmitrymomot/easyauth/pkg/logger"
	"github.com/dmitrymomot/easyauth/pkg/validator"
	"github.com/dmitrymomot/easyauth/svc/auth"
	oidcsvc "github.com/dmitrymomot/easyauth/svc/oidc"
)

var (
	errInvalidCredentials   = handler.HTTPError{Status: http.StatusUnauthorized, Code: "InvalidCredentials", Message: "email or password is incorrect"}
	errTokenInvalid         = handler.HTTPError{Status: http.StatusUnauthorized, Code: "TokenInvalid", Message: "token is missing or invalid"}
	errTokenExpired         = handler.HTTPError{Status: http.StatusUnauthorized, Code: "TokenExpired", Message: "token has expired"}
	errUserExists           = handler.HTTPError{Status: http.StatusConflict, Code: "UserExists", Message: "user already exists"}
	errCaptchaFailed        = handler.HTTPError{Status: http.StatusForbidden, Code: "CaptchaFailed", Message: "captcha verification failed"}
	errInvalidClient        = handler.HTTPError{Status: http.StatusUnauthorized, Code: "InvalidClient", Message: "client authentication failed"}
	errInvalidGrant         = handler.HTTPError{Status: http.StatusBadRequest, Code: "InvalidGrant", Message: "authorization code is invalid or expired"}
	errAccountAlreadyLinked = handler.HTTPError{Status: http.StatusForbidden, Code: "AccountAlreadyLinked", Message: "account is already linked to another user"}
	errPermissionDenied     = handler.HTTPError{Status: http.StatusForbidden, Code: "PermissionDenied", Message: "permission denied"}
	errNotFound             = handler.HTTPError{Status: http.StatusNotFound, Code: "NotFound", Message: "not found"}
)

// mapError translates domain errors into wire errors. Bind and validation
// failures pass through; handler.JSONError renders them as ParamsWrong.
func mapError(err error) error {
	if validator.IsValidationError(err) || binder.IsBindError(err) {
		return err
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return errInvalidCredentials
	case errors.Is(err, auth.ErrTokenExpired):
		return errTokenExpired
	case errors.Is(err, auth.ErrTokenInvalid), errors.Is(err, auth.ErrNoSession):
		return errTokenInvalid
	case errors.Is(err, auth.ErrUserExists):
		return errUserExists
	case errors.Is(err, auth.ErrCaptchaFailed):
		return errCaptchaFailed
	case errors.Is(err, oidcsvc.ErrInvalidClient):
		return errInvalidClient
	case errors.Is(err, oidcsvc.ErrInvalidGrant):
		return errInvalidGrant
	case errors.Is(err, auth.ErrAccountAlreadyLinked):
		return errAccountAlreadyLinked
	case errors.Is(err, auth.ErrPermissionDenied):
		return errPermissionDenied
	case errors.Is(err, auth.ErrLastLoginMethod):
		return errPermissionDenied.WithMessage("set a password before unlinking the last provider")
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrAccountNotFound),
		errors.Is(err, auth.ErrUnknownProvider),
		errors.Is(err, oidcsvc.ErrAppNotFound):
		return errNotFound
	case errors.Is(err, oidcsvc.ErrParamsWrong),
		errors.Is(err, auth.ErrInvalidCode),
		errors.Is(err, auth.ErrNoPrimaryEmail):
		return handler.ParamsWrong
	}

	var httpErr handler.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return err
}

func (m *Module) errorHandler(ctx handler.Context, err error) {
	mapped := mapError(err)

	var httpErr handler.HTTPError
	switch {
	case errors.As(mapped, &httpErr), validator.IsValidationError(mapped), binder.IsBindError(mapped):
		m.logger.DebugContext(ctx, "request rejected", logger.Error(err), logger.Component("http"))
	default:
		m.logger.ErrorContext(ctx, "request failed",
			logger.Error(err),
			slog.String("path", ctx.Request().URL.Path),
			logger.Component("http"),
		)
	}

	_ = handler.JSONError(mapped).Render(ctx.ResponseWriter(), ctx.Request())
}
