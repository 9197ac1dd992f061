package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/easyauth/pkg/pg"
	"github.com/dmitrymomot/easyauth/svc/oidc"
)

const appColumns = `client_id, secret, redirect_uri, name, public_key, private_key, created_at`

func scanApp(row pgx.Row) (*oidc.App, error) {
	var a oidc.App
	if err := row.Scan(&a.ClientID, &a.Secret, &a.RedirectURI, &a.Name, &a.PublicKey, &a.PrivateKey, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (s *Store) CreateApp(ctx context.Context, a *oidc.App) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO apps (`+appColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ClientID, a.Secret, a.RedirectURI, a.Name, a.PublicKey, a.PrivateKey, a.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return oidc.ErrAppExists
		}
		return fmt.Errorf("insert app: %w", err)
	}
	return nil
}

func (s *Store) GetApp(ctx context.Context, clientID string) (*oidc.App, error) {
	a, err := scanApp(s.pool.QueryRow(ctx, `SELECT `+appColumns+` FROM apps WHERE client_id = $1`, clientID))
	if pg.IsNotFoundError(err) {
		return nil, oidc.ErrAppNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select app: %w", err)
	}
	return a, nil
}

func (s *Store) ListApps(ctx context.Context, limit, offset int) ([]*oidc.App, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appColumns+` FROM apps ORDER BY created_at, client_id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	apps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*oidc.App, error) {
		return scanApp(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	return apps, nil
}

func (s *Store) DeleteApp(ctx context.Context, clientID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM apps WHERE client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("delete app: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return oidc.ErrAppNotFound
	}
	return nil
}
