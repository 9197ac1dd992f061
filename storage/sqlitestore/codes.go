package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/easyauth/svc/auth"
	"github.com/dmitrymomot/easyauth/svc/oidc"
)

func (s *Store) StoreCode(ctx context.Context, c oidc.AuthorizationCode) error {
	claim, err := json.Marshal(c.Claim)
	if err != nil {
		return fmt.Errorf("encode claim: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO authorization_codes (code, claim, created_at) VALUES (?, ?, ?)`,
		c.Code, string(claim), toMillis(c.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oidc.ErrCodeExists
		}
		return fmt.Errorf("insert code: %w", err)
	}
	return nil
}

func (s *Store) ConsumeCode(ctx context.Context, code string, notBefore time.Time) (auth.Claim, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM authorization_codes WHERE code = ? AND created_at > ? RETURNING claim`,
		code, toMillis(notBefore),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Claim{}, oidc.ErrCodeNotFound
	}
	if err != nil {
		return auth.Claim{}, fmt.Errorf("consume code: %w", err)
	}

	var claim auth.Claim
	if err := json.Unmarshal([]byte(raw), &claim); err != nil {
		return auth.Claim{}, fmt.Errorf("decode claim: %w", err)
	}
	return claim, nil
}

func (s *Store) DeleteCodesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM authorization_codes WHERE created_at <= ?`,
		toMillis(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("delete codes: %w", err)
	}
	return res.RowsAffected()
}
