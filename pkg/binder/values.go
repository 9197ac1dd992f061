package binder

import (
	"fmt"
	"net/http"
)

const maxFormSize = 1 << 20

// Query binds URL query parameters into fields tagged `query:"name"`.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}

// Form binds an application/x-www-form-urlencoded body into fields tagged
// `form:"name"`. Requests with another content type are not applicable.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if mediaType(r) != "application/x-www-form-urlencoded" {
			return ErrBinderNotApplicable
		}
		r.Body = http.MaxBytesReader(nil, r.Body, maxFormSize)
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", ErrFailedToParseForm, err)
		}
		return bindToStruct(v, "form", r.PostForm, ErrFailedToParseForm)
	}
}

// IsForm reports whether r carries a url-encoded form body. Browser form
// posts expect redirects where JSON callers expect a JSON body.
func IsForm(r *http.Request) bool {
	return mediaType(r) == "application/x-www-form-urlencoded"
}

// Path binds URL path parameters into fields tagged `path:"name"` using
// extractor, for example chi.URLParam.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := make(map[string][]string)
		for _, name := range tagNames(v, "path") {
			if val := extractor(r, name); val != "" {
				values[name] = []string{val}
			}
		}
		return bindToStruct(v, "path", values, ErrFailedToParsePath)
	}
}
