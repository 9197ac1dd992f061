// Package oidc mounts the identity provider's HTTP surface: browser sign-in
// and sign-up, the provider redirect flow, the token endpoint used by
// application backends, profile management and the application registry.
package oidc

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/easyauth/handler"
	"github.com/dmitrymomot/easyauth/pkg/binder"
	"github.com/dmitrymomot/easyauth/pkg/clientip"
	"github.com/dmitrymomot/easyauth/pkg/cookie"
	"github.com/dmitrymomot/easyauth/pkg/httpserver"
	"github.com/dmitrymomot/easyauth/pkg/logger"
	"github.com/dmitrymomot/easyauth/pkg/requestid"
	"github.com/dmitrymomot/easyauth/svc/auth"
	oidcsvc "github.com/dmitrymomot/easyauth/svc/oidc"
)

// Config holds the HTTP-facing settings of the module.
type Config struct {
	// SiteURL is where form posts land when no application is involved.
	SiteURL  string        `env:"SITE_URL" envDefault:"/"`
	StateTTL time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
}

// Services are the domain services behind the handlers.
type Services struct {
	Auth     *auth.Service
	Sessions *auth.SessionCodec
	Exchange *oidcsvc.Exchange
	Apps     *oidcsvc.AppService
}

type Module struct {
	cfg         Config
	svc         Services
	stateSecret string
	cookies     *cookie.Manager
	clientIP    *clientip.Resolver
	health      []httpserver.HealthCheck
	logger      *slog.Logger
}

type Option func(*Module)

// WithCookies replaces the default cookie manager.
func WithCookies(c *cookie.Manager) Option {
	return func(m *Module) {
		if c != nil {
			m.cookies = c
		}
	}
}

// WithClientIP sets how the client address forwarded to CAPTCHA
// verification is resolved.
func WithClientIP(r *clientip.Resolver) Option {
	return func(m *Module) {
		if r != nil {
			m.clientIP = r
		}
	}
}

// WithHealthChecks sets the checks served on /healthz.
func WithHealthChecks(checks ...httpserver.HealthCheck) Option {
	return func(m *Module) { m.health = append(m.health, checks...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates the module. stateSecret signs the OAuth state parameter.
func New(cfg Config, stateSecret string, svc Services, opts ...Option) *Module {
	m := &Module{
		cfg:         cfg,
		svc:         svc,
		stateSecret: stateSecret,
		cookies:     cookie.New(),
		clientIP:    clientip.New(),
		logger:      logger.Discard(),
	}
	if m.cfg.SiteURL == "" {
		m.cfg.SiteURL = "/"
	}
	if m.cfg.StateTTL <= 0 {
		m.cfg.StateTTL = 10 * time.Minute
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle returns the module router.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		m.logRequests,
		middleware.Recoverer,
		m.clientIP.Middleware,
		m.loadSession,
	)

	r.Get("/healthz", httpserver.HealthCheckHandler(m.logger, m.health...))

	r.Post("/signup", wrap(m, m.signup, binder.JSON(), binder.Form()))
	r.Post("/login", wrap(m, m.login, binder.JSON(), binder.Form()))
	r.Post("/login/ok", wrap(m, authenticated(m.loginOK), binder.JSON(), binder.Form()))
	r.Get("/login/check", wrap(m, m.loginCheck))
	r.Get("/logout", wrap(m, m.logout))

	r.Get("/auth/{provider}", wrap(m, m.oauthBegin, binder.Path(chi.URLParam), binder.Query()))
	r.Post("/auth/{provider}", wrap(m, m.oauthExchange, binder.Path(chi.URLParam), binder.JSON(), binder.Form()))
	r.Get("/auth/{provider}/callback", wrap(m, m.oauthCallback, binder.Path(chi.URLParam), binder.Query()))
	r.Put("/auth/{provider}/unlink", wrap(m, authenticated(m.unlink), binder.Path(chi.URLParam)))

	token := wrap(m, m.token, binder.Query(), binder.JSON(), binder.Form())
	r.Get("/oidc/token", token)
	r.Post("/oidc/token", token)
	r.Get("/oidc/.well-known/jwks.json", wrap(m, m.jwks, binder.Query()))

	r.Get("/info", wrap(m, m.userInfo, binder.Query()))
	r.Get("/profile", wrap(m, authenticated(m.profile)))
	r.Patch("/profile", wrap(m, authenticated(m.updateProfile), binder.JSON(), binder.Form()))
	r.Put("/password", wrap(m, authenticated(m.changePassword), binder.JSON(), binder.Form()))

	r.Get("/app/info/{client_id}", wrap(m, m.appInfo, binder.Path(chi.URLParam)))
	r.Get("/app", wrap(m, authenticated(m.listApps), binder.Query()))
	r.Post("/app", wrap(m, authenticated(m.createApp), binder.JSON(), binder.Form()))
	r.Delete("/app", wrap(m, authenticated(m.deleteApp), binder.Query(), binder.JSON()))

	return r
}

func wrap[R any](m *Module, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](m.errorHandler),
	)
}

// fail defers err to the module error handler.
func fail(err error) handler.Response {
	return handler.ResponseFunc(func(http.ResponseWriter, *http.Request) error { return err })
}
