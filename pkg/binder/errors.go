package binder

import "errors"

var (
	// ErrBinderNotApplicable tells the caller to skip this binder for the
	// request, for example the JSON binder on a form post.
	ErrBinderNotApplicable = errors.New("binder: not applicable")

	ErrUnsupportedMediaType = errors.New("binder: unsupported media type")
	ErrFailedToParseJSON    = errors.New("binder: failed to parse JSON request body")
	ErrFailedToParseForm    = errors.New("binder: failed to parse form data")
	ErrFailedToParseQuery   = errors.New("binder: failed to parse query parameters")
	ErrFailedToParsePath    = errors.New("binder: failed to parse path parameters")
)

// IsBindError reports whether err came from a binder rejecting the request
// payload.
func IsBindError(err error) bool {
	return errors.Is(err, ErrFailedToParseJSON) ||
		errors.Is(err, ErrFailedToParseForm) ||
		errors.Is(err, ErrFailedToParseQuery) ||
		errors.Is(err, ErrFailedToParsePath) ||
		errors.Is(err, ErrUnsupportedMediaType)
}
