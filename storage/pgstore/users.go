package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/easyauth/pkg/pg"
	"github.com/dmitrymomot/easyauth/svc/auth"
)

const userColumns = `id::text, email, password_hash, avatar, nickname, scope, created_at`

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u  auth.User
		id string
	)
	if err := row.Scan(&id, &u.Email, &u.PasswordHash, &u.Avatar, &u.Nickname, &u.Scope, &u.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	u.ID = parsed
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*auth.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if pg.IsNotFoundError(err) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return s.getUser(ctx, `id = $1`, id.String())
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.getUser(ctx, `email = $1`, email)
}

func insertUser(ctx context.Context, tx pgx.Tx, u *auth.User) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, avatar, nickname, scope, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID.String(), u.Email, u.PasswordHash, u.Avatar, u.Nickname, u.Scope, u.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return auth.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func insertAccount(ctx context.Context, tx pgx.Tx, a *auth.Account) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO accounts (id, user_id, provider, provider_user_id, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID.String(), a.UserID.String(), a.Provider, a.ProviderUserID, a.Name, a.CreatedAt,
	)
	if err != nil {
		switch {
		case pg.IsDuplicateKeyError(err):
			return auth.ErrAccountAlreadyLinked
		case pg.IsForeignKeyViolationError(err):
			return auth.ErrUserNotFound
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return insertUser(ctx, tx, u)
	})
}

func (s *Store) CreateUserWithAccount(ctx context.Context, u *auth.User, a *auth.Account) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := insertUser(ctx, tx, u); err != nil {
			return err
		}
		return insertAccount(ctx, tx, a)
	})
}

func (s *Store) GetAccount(ctx context.Context, userID uuid.UUID, provider string) (*auth.Account, error) {
	var (
		a       auth.Account
		id, uid string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, user_id::text, provider, provider_user_id, name, created_at
		FROM accounts WHERE user_id = $1 AND provider = $2`,
		userID.String(), provider,
	).Scan(&id, &uid, &a.Provider, &a.ProviderUserID, &a.Name, &a.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, auth.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}
	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse account id: %w", err)
	}
	if a.UserID, err = uuid.Parse(uid); err != nil {
		return nil, fmt.Errorf("parse account user id: %w", err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (s *Store) LinkAccount(ctx context.Context, a *auth.Account, avatar string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := insertAccount(ctx, tx, a); err != nil {
			return err
		}
		if avatar == "" {
			return nil
		}
		if _, err := tx.Exec(ctx,
			`UPDATE users SET avatar = $1 WHERE id = $2 AND avatar = ''`,
			avatar, a.UserID.String(),
		); err != nil {
			return fmt.Errorf("backfill avatar: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteAccount(ctx context.Context, userID uuid.UUID, provider string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM accounts WHERE user_id = $1 AND provider = $2`,
		userID.String(), provider,
	)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, nickname, avatar string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET nickname = $1, avatar = $2 WHERE id = $3`,
		nickname, avatar, id.String(),
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`,
		hash, id.String(),
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}
