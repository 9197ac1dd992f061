package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/easyauth/svc/auth"
)

const userColumns = `id, email, password_hash, avatar, nickname, scope, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*auth.User, error) {
	var (
		u         auth.User
		id        string
		scope     sql.NullString
		createdAt int64
	)
	if err := row.Scan(&id, &u.Email, &u.PasswordHash, &u.Avatar, &u.Nickname, &scope, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	u.ID = parsed
	if scope.Valid {
		u.Scope = &scope.String
	}
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*auth.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return s.getUser(ctx, `id = ?`, id.String())
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.getUser(ctx, `email = ?`, email)
}

type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUser(ctx context.Context, db execContexter, u *auth.User) error {
	var scope sql.NullString
	if u.Scope != nil {
		scope = sql.NullString{String: *u.Scope, Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.PasswordHash, u.Avatar, u.Nickname, scope, toMillis(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func insertAccount(ctx context.Context, db execContexter, a *auth.Account) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, provider, provider_user_id, name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.UserID.String(), a.Provider, a.ProviderUserID, a.Name, toMillis(a.CreatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return auth.ErrAccountAlreadyLinked
		case isForeignKeyViolation(err):
			return auth.ErrUserNotFound
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	return insertUser(ctx, s.db, u)
}

func (s *Store) CreateUserWithAccount(ctx context.Context, u *auth.User, a *auth.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	if err := insertUser(ctx, tx, u); err != nil {
		return err
	}
	if err := insertAccount(ctx, tx, a); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, userID uuid.UUID, provider string) (*auth.Account, error) {
	var (
		a         auth.Account
		id, uid   string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, provider, provider_user_id, name, created_at
		FROM accounts WHERE user_id = ? AND provider = ?`,
		userID.String(), provider,
	).Scan(&id, &uid, &a.Provider, &a.ProviderUserID, &a.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
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
	a.CreatedAt = fromMillis(createdAt)
	return &a, nil
}

func (s *Store) LinkAccount(ctx context.Context, a *auth.Account, avatar string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(tx)

	if err := insertAccount(ctx, tx, a); err != nil {
		return err
	}
	if avatar != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET avatar = ? WHERE id = ? AND avatar = ''`,
			avatar, a.UserID.String(),
		); err != nil {
			return fmt.Errorf("backfill avatar: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID uuid.UUID, provider string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE user_id = ? AND provider = ?`,
		userID.String(), provider,
	)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return expectOne(res, auth.ErrAccountNotFound)
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, nickname, avatar string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET nickname = ?, avatar = ? WHERE id = ?`,
		nickname, avatar, id.String(),
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return expectOne(res, auth.ErrUserNotFound)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		hash, id.String(),
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOne(res, auth.ErrUserNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
