// Package pgstore persists users, applications and authorization codes in
// PostgreSQL through a pgx connection pool.
package pgstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/easyauth/pkg/pg"
	"github.com/dmitrymomot/easyauth/svc/auth"
	"github.com/dmitrymomot/easyauth/svc/oidc"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store implements auth.Storage, oidc.AppStorage and oidc.CodeStorage.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ auth.Storage     = (*Store)(nil)
	_ oidc.AppStorage  = (*Store)(nil)
	_ oidc.CodeStorage = (*Store)(nil)
)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema migrations, recording them in table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, table string, log *slog.Logger) error {
	migrationFS, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("pgstore: migrations fs: %w", err)
	}
	return pg.Migrate(ctx, pool, migrationFS, table, log)
}

// Healthcheck pings the pool.
func (s *Store) Healthcheck(ctx context.Context) error {
	return pg.Healthcheck(s.pool)(ctx)
}
