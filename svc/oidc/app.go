package oidc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/dmitrymomot/easyauth/pkg/keys"
	"github.com/dmitrymomot/easyauth/pkg/logger"
	"github.com/dmitrymomot/easyauth/pkg/sanitizer"
	"github.com/dmitrymomot/easyauth/pkg/validator"
	"github.com/dmitrymomot/easyauth/svc/auth"
)

const (
	credentialBytes = 16
	maxAppNameLen   = 64
	defaultPageSize = 20
	maxPageSize     = 100
)

// AppService manages the registry of client applications.
type AppService struct {
	storage AppStorage
	now     func() time.Time
	logger  *slog.Logger
}

type AppOption func(*AppService)

func WithAppClock(now func() time.Time) AppOption {
	return func(s *AppService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithAppLogger(l *slog.Logger) AppOption {
	return func(s *AppService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewAppService(storage AppStorage, opts ...AppOption) *AppService {
	s := &AppService{storage: storage, now: time.Now, logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAppInput describes a new application.
type CreateAppInput struct {
	Name        string
	RedirectURI string
}

// Create registers an application with fresh credentials and an ES256 key
// pair. The returned App is the only place the secret is exposed.
func (s *AppService) Create(ctx context.Context, actor auth.Claim, in CreateAppInput) (*App, error) {
	if !actor.IsAdmin() {
		return nil, auth.ErrPermissionDenied
	}
	in.Name = sanitizer.NormalizeWhitespace(in.Name)
	if err := validator.Apply(
		validator.Required("name", in.Name),
		validator.MaxLen("name", in.Name, maxAppNameLen),
		validator.ValidURL("redirect_uri", in.RedirectURI),
	); err != nil {
		return nil, err
	}

	clientID, err := randomHex()
	if err != nil {
		return nil, err
	}
	secret, err := randomHex()
	if err != nil {
		return nil, err
	}
	pair, err := keys.Generate()
	if err != nil {
		return nil, err
	}

	app := &App{
		ClientID:    clientID,
		Secret:      secret,
		RedirectURI: in.RedirectURI,
		Name:        in.Name,
		CreatedAt:   s.now().UTC(),
		PublicKey:   pair.Public,
		PrivateKey:  pair.Private,
	}
	if err := s.storage.CreateApp(ctx, app); err != nil {
		return nil, fmt.Errorf("create app: %w", err)
	}

	s.logger.InfoContext(ctx, "app registered",
		logger.ClientID(clientID),
		logger.UserID(actor.Subject),
		logger.Component("apps"),
	)
	return app, nil
}

// Get returns the application with clientID.
func (s *AppService) Get(ctx context.Context, clientID string) (*App, error) {
	if clientID == "" {
		return nil, ErrAppNotFound
	}
	app, err := s.storage.GetApp(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrAppNotFound) {
			return nil, ErrAppNotFound
		}
		return nil, fmt.Errorf("get app: %w", err)
	}
	return app, nil
}

// List returns a page of applications ordered by creation time.
func (s *AppService) List(ctx context.Context, actor auth.Claim, limit, offset int) ([]*App, error) {
	if !actor.IsAdmin() {
		return nil, auth.ErrPermissionDenied
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset = max(offset, 0)

	apps, err := s.storage.ListApps(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	return apps, nil
}

// Delete removes an application. Codes already issued for it can no longer
// be redeemed because the client lookup fails.
func (s *AppService) Delete(ctx context.Context, actor auth.Claim, clientID string) error {
	if !actor.IsAdmin() {
		return auth.ErrPermissionDenied
	}
	if clientID == "" {
		return ErrParamsWrong
	}
	if err := s.storage.DeleteApp(ctx, clientID); err != nil {
		if errors.Is(err, ErrAppNotFound) {
			return ErrAppNotFound
		}
		return fmt.Errorf("delete app: %w", err)
	}
	s.logger.InfoContext(ctx, "app deleted",
		logger.ClientID(clientID),
		logger.UserID(actor.Subject),
		logger.Component("apps"),
	)
	return nil
}

// JWKS returns the public key set for clientID. Applications without a key
// pair have an empty set.
func (s *AppService) JWKS(ctx context.Context, clientID string) (jwk.Set, error) {
	app, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(app.PublicKey) == 0 {
		return jwk.NewSet(), nil
	}
	return keys.PublicSet(app.PublicKey)
}

func randomHex() (string, error) {
	b := make([]byte, credentialBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oidc: read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
