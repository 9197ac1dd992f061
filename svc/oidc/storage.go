package oidc

import (
	"context"
	"time"

	"github.com/dmitrymomot/easyauth/svc/auth"
)

// CodeStorage persists authorization codes.
type CodeStorage interface {
	// StoreCode saves code. A duplicate code yields ErrCodeExists.
	StoreCode(ctx context.Context, code AuthorizationCode) error
	// ConsumeCode atomically deletes the code if it was created after
	// notBefore and returns its claim. Every miss is ErrCodeNotFound.
	ConsumeCode(ctx context.Context, code string, notBefore time.Time) (auth.Claim, error)
	// DeleteCodesBefore removes codes created at or before cutoff.
	DeleteCodesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AppStorage persists client applications. Misses yield ErrAppNotFound.
type AppStorage interface {
	CreateApp(ctx context.Context, app *App) error
	GetApp(ctx context.Context, clientID string) (*App, error)
	ListApps(ctx context.Context, limit, offset int) ([]*App, error)
	DeleteApp(ctx context.Context, clientID string) error
}
