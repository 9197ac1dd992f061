// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request value decoded by a chain
// of binders, and returns a Response that renders itself. Errors from
// binding or rendering are passed to an ErrorHandler, which by default
// writes the JSON error envelope.
//
//	type loginRequest struct {
//		Email    string `json:"email"`
//		Password string `json:"password"`
//	}
//
//	r.Post("/login", handler.Wrap(func(ctx handler.Context, req loginRequest) handler.Response {
//		return handler.JSON(map[string]string{"ok": "yes"})
//	}, handler.WithBinders[handler.Context, loginRequest](binder.JSON())))
package handler
