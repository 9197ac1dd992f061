package oidc

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/easyauth/pkg/idtoken"
	"github.com/dmitrymomot/easyauth/pkg/keys"
	"github.com/dmitrymomot/easyauth/pkg/logger"
	"github.com/dmitrymomot/easyauth/svc/auth"
)

// Exchange turns authenticated sessions into authorization codes and codes
// into ID tokens.
type Exchange struct {
	apps       AppStorage
	codes      *CodeService
	mode       IDTokenMode
	idTokenTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

type ExchangeOption func(*Exchange)

func WithIDTokenMode(m IDTokenMode) ExchangeOption {
	return func(e *Exchange) {
		if m != "" {
			e.mode = m
		}
	}
}

func WithIDTokenTTL(ttl time.Duration) ExchangeOption {
	return func(e *Exchange) {
		if ttl > 0 {
			e.idTokenTTL = ttl
		}
	}
}

func WithExchangeClock(now func() time.Time) ExchangeOption {
	return func(e *Exchange) {
		if now != nil {
			e.now = now
		}
	}
}

func WithExchangeLogger(l *slog.Logger) ExchangeOption {
	return func(e *Exchange) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewExchange(apps AppStorage, codes *CodeService, opts ...ExchangeOption) *Exchange {
	e := &Exchange{
		apps:       apps,
		codes:      codes,
		mode:       ModeAuto,
		idTokenTTL: DefaultIDTokenTTL,
		now:        time.Now,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IssueRequest asks for a code for Claim on behalf of ClientID.
type IssueRequest struct {
	ClientID    string
	State       string
	RedirectURI string
	Claim       auth.Claim
}

// IssueRedirect issues a code and returns the URL the browser should be
// sent to: the application's redirect URI, or RedirectURI when its host
// equals the registered one, with code and state appended to the query.
func (e *Exchange) IssueRedirect(ctx context.Context, req IssueRequest) (string, error) {
	if req.ClientID == "" {
		return "", ErrParamsWrong
	}
	app, err := e.apps.GetApp(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, ErrAppNotFound) {
			return "", ErrInvalidClient
		}
		return "", fmt.Errorf("get app: %w", err)
	}

	target, err := url.Parse(app.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("app %s has malformed redirect uri: %w", app.ClientID, err)
	}
	if override, ok := sameHost(target, req.RedirectURI); ok {
		target = override
	}

	code, err := e.codes.Issue(ctx, req.Claim)
	if err != nil {
		return "", err
	}

	q := target.Query()
	q.Set("code", code)
	q.Set("state", req.State)
	target.RawQuery = q.Encode()

	e.logger.DebugContext(ctx, "authorization code issued",
		logger.ClientID(app.ClientID),
		logger.UserID(req.Claim.Subject),
		logger.Component("oidc"),
	)
	return target.String(), nil
}

// sameHost parses candidate and accepts it only when it is an absolute
// URL with registered's scheme and host.
func sameHost(registered *url.URL, candidate string) (*url.URL, bool) {
	if candidate == "" {
		return nil, false
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, false
	}
	if !strings.EqualFold(u.Scheme, registered.Scheme) || !strings.EqualFold(u.Host, registered.Host) {
		return nil, false
	}
	return u, true
}

// RedeemRequest is a token endpoint call from an application backend.
type RedeemRequest struct {
	ClientID     string
	ClientSecret string
	Code         string
}

// Redeem authenticates the application, consumes the code and returns a
// signed ID token for its claim.
func (e *Exchange) Redeem(ctx context.Context, req RedeemRequest) (string, error) {
	if req.ClientID == "" || req.ClientSecret == "" || req.Code == "" {
		return "", ErrParamsWrong
	}

	app, err := e.Authenticate(ctx, req.ClientID, req.ClientSecret)
	if err != nil {
		return "", err
	}

	claim, err := e.codes.Redeem(ctx, req.Code)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return "", ErrInvalidGrant
		}
		return "", err
	}

	key, err := e.signingKey(app)
	if err != nil {
		return "", err
	}
	token, err := idtoken.Sign(key, claim.Subject, claim.Scope, e.now(), e.idTokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign id token: %w", err)
	}

	if n, err := e.codes.SweepExpired(ctx); err != nil {
		e.logger.WarnContext(ctx, "opportunistic sweep failed",
			logger.Error(err),
			logger.Component("oidc"),
		)
	} else if n > 0 {
		e.logger.DebugContext(ctx, "swept expired codes", logger.Count(n), logger.Component("oidc"))
	}

	e.logger.InfoContext(ctx, "id token issued",
		logger.ClientID(app.ClientID),
		logger.UserID(claim.Subject),
		slog.String("alg", key.Alg()),
		logger.Component("oidc"),
	)
	return token, nil
}

// Authenticate checks application credentials. An unknown client and a
// wrong secret both yield ErrInvalidClient.
func (e *Exchange) Authenticate(ctx context.Context, clientID, secret string) (*App, error) {
	app, err := e.apps.GetApp(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrAppNotFound) {
			return nil, ErrInvalidClient
		}
		return nil, fmt.Errorf("get app: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(app.Secret), []byte(secret)) != 1 {
		return nil, ErrInvalidClient
	}
	return app, nil
}

func (e *Exchange) signingKey(app *App) (idtoken.SigningKey, error) {
	if e.mode == ModeAuto && app.HasKeyPair() {
		priv, kid, err := keys.ParsePrivate(app.PrivateKey)
		if err != nil {
			return idtoken.SigningKey{}, fmt.Errorf("app %s signing key: %w", app.ClientID, err)
		}
		return idtoken.ES256(priv, kid), nil
	}
	return idtoken.HS256([]byte(app.Secret)), nil
}

// VerifyIDToken authenticates the application and verifies an ID token
// issued to it, trying the application's public key and its secret.
func (e *Exchange) VerifyIDToken(ctx context.Context, clientID, secret, token string) (auth.Claim, error) {
	app, err := e.Authenticate(ctx, clientID, secret)
	if err != nil {
		return auth.Claim{}, err
	}

	var candidates []idtoken.VerificationKey
	if len(app.PublicKey) > 0 {
		set, err := keys.PublicSet(app.PublicKey)
		if err != nil {
			return auth.Claim{}, fmt.Errorf("app %s public key: %w", app.ClientID, err)
		}
		if candidates, err = idtoken.KeysFromSet(set); err != nil {
			return auth.Claim{}, fmt.Errorf("app %s public key: %w", app.ClientID, err)
		}
	}
	candidates = append(candidates, idtoken.Secret([]byte(app.Secret)))

	claims, err := idtoken.Verify(token, candidates, idtoken.WithClock(e.now))
	if err != nil {
		if errors.Is(err, idtoken.ErrTokenExpired) {
			return auth.Claim{}, auth.ErrTokenExpired
		}
		return auth.Claim{}, auth.ErrTokenInvalid
	}
	return auth.Claim{Subject: claims.Subject, Scope: claims.Scope}, nil
}
