package oidc

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/easyauth/handler"
	"github.com/dmitrymomot/easyauth/pkg/cookie"
	"github.com/dmitrymomot/easyauth/pkg/jwt"
	"github.com/dmitrymomot/easyauth/pkg/logger"
	"github.com/dmitrymomot/easyauth/svc/auth"
)

var sessionToken = jwt.ChainExtractors(
	jwt.CookieTokenExtractor(auth.SessionCookie),
	jwt.BearerTokenExtractor,
)

// loadSession verifies the session token, if any, and records the outcome
// in the request context.
func (m *Module) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := sessionToken(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		claim, err := m.svc.Sessions.Verify(raw)
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), claim, err)))
	})
}

// authenticated adapts a handler that needs the caller's session. Requests
// without a valid session fail with TokenInvalid or TokenExpired.
func authenticated[R any](h func(ctx handler.Context, claim auth.Claim, req R) handler.Response) handler.HandlerFunc[handler.Context, R] {
	return func(ctx handler.Context, req R) handler.Response {
		claim, err := auth.SessionFromContext(ctx)
		if err != nil {
			return fail(err)
		}
		return h(ctx, claim, req)
	}
}

// establishSession signs claim into the session cookie.
func (m *Module) establishSession(ctx handler.Context, claim auth.Claim) error {
	token, err := m.svc.Sessions.Sign(claim)
	if err != nil {
		return err
	}
	m.cookies.Set(ctx.ResponseWriter(), auth.SessionCookie, token,
		cookie.WithMaxAge(int(m.svc.Sessions.TTL()/time.Second)))
	return nil
}

func (m *Module) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		m.logger.InfoContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
