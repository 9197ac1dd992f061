package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrymomot/easyauth/svc/oidc"
)

const appColumns = `client_id, secret, redirect_uri, name, public_key, private_key, created_at`

func scanApp(row rowScanner) (*oidc.App, error) {
	var (
		a         oidc.App
		createdAt int64
	)
	if err := row.Scan(&a.ClientID, &a.Secret, &a.RedirectURI, &a.Name, &a.PublicKey, &a.PrivateKey, &createdAt); err != nil {
		return nil, err
	}
	a.CreatedAt = fromMillis(createdAt)
	return &a, nil
}

func (s *Store) CreateApp(ctx context.Context, a *oidc.App) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO apps (`+appColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ClientID, a.Secret, a.RedirectURI, a.Name, a.PublicKey, a.PrivateKey, toMillis(a.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oidc.ErrAppExists
		}
		return fmt.Errorf("insert app: %w", err)
	}
	return nil
}

func (s *Store) GetApp(ctx context.Context, clientID string) (*oidc.App, error) {
	a, err := scanApp(s.db.QueryRowContext(ctx, `SELECT `+appColumns+` FROM apps WHERE client_id = ?`, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oidc.ErrAppNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select app: %w", err)
	}
	return a, nil
}

func (s *Store) ListApps(ctx context.Context, limit, offset int) ([]*oidc.App, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appColumns+` FROM apps ORDER BY created_at, client_id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var apps []*oidc.App
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan app: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	return apps, nil
}

func (s *Store) DeleteApp(ctx context.Context, clientID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM apps WHERE client_id = ?`, clientID)
	if err != nil {
		return fmt.Errorf("delete app: %w", err)
	}
	return expectOne(res, oidc.ErrAppNotFound)
}
