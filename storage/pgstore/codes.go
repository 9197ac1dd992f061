package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/easyauth/pkg/pg"
	"github.com/dmitrymomot/easyauth/svc/auth"
	"github.com/dmitrymomot/easyauth/svc/oidc"
)

func (s *Store) StoreCode(ctx context.Context, c oidc.AuthorizationCode) error {
	claim, err := json.Marshal(c.Claim)
	if err != nil {
		return fmt.Errorf("encode claim: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO authorization_codes (code, claim, created_at) VALUES ($1, $2, $3)`,
		c.Code, claim, c.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return oidc.ErrCodeExists
		}
		return fmt.Errorf("insert code: %w", err)
	}
	return nil
}

func (s *Store) ConsumeCode(ctx context.Context, code string, notBefore time.Time) (auth.Claim, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`DELETE FROM authorization_codes WHERE code = $1 AND created_at > $2 RETURNING claim`,
		code, notBefore,
	).Scan(&raw)
	if pg.IsNotFoundError(err) {
		return auth.Claim{}, oidc.ErrCodeNotFound
	}
	if err != nil {
		return auth.Claim{}, fmt.Errorf("consume code: %w", err)
	}

	var claim auth.Claim
	if err := json.Unmarshal(raw, &claim); err != nil {
		return auth.Claim{}, fmt.Errorf("decode claim: %w", err)
	}
	return claim, nil
}

func (s *Store) DeleteCodesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM authorization_codes WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
