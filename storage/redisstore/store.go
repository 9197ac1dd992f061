// Package redisstore keeps authorization codes in Redis. Codes expire on
// their own through key TTLs; a sorted-set index lets the sweeper remove
// them earlier by creation time.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/easyauth/svc/auth"
	"github.com/dmitrymomot/easyauth/svc/oidc"
)

// minExpiration keeps SET from rejecting a non-positive TTL for codes that
// are already past their lifetime when stored.
const minExpiration = time.Second

type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ oidc.CodeStorage = (*Store)(nil)

type Option func(*Store)

// WithKeyPrefix namespaces every key written by the store.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithCodeTTL sets how long a code key lives after its creation time.
func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "easyauth:",
		ttl:    oidc.DefaultCodeTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type entry struct {
	Claim     auth.Claim `json:"claim"`
	CreatedAt int64      `json:"created_at"`
}

func (s *Store) key(code string) string { return s.prefix + "code:" + code }

func (s *Store) indexKey() string { return s.prefix + "codes" }

func (s *Store) StoreCode(ctx context.Context, c oidc.AuthorizationCode) error {
	raw, err := json.Marshal(entry{Claim: c.Claim, CreatedAt: c.CreatedAt.UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode code: %w", err)
	}

	expiration := max(time.Until(c.CreatedAt.Add(s.ttl)), minExpiration)
	ok, err := s.client.SetNX(ctx, s.key(c.Code), raw, expiration).Result()
	if err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if !ok {
		return oidc.ErrCodeExists
	}

	if err := s.client.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(c.CreatedAt.UnixMilli()),
		Member: c.Code,
	}).Err(); err != nil {
		return fmt.Errorf("index code: %w", err)
	}
	return nil
}

func (s *Store) ConsumeCode(ctx context.Context, code string, notBefore time.Time) (auth.Claim, error) {
	raw, err := s.client.GetDel(ctx, s.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Claim{}, oidc.ErrCodeNotFound
	}
	if err != nil {
		return auth.Claim{}, fmt.Errorf("consume code: %w", err)
	}
	if err := s.client.ZRem(ctx, s.indexKey(), code).Err(); err != nil {
		return auth.Claim{}, fmt.Errorf("unindex code: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return auth.Claim{}, fmt.Errorf("decode code: %w", err)
	}
	if e.CreatedAt <= notBefore.UnixMilli() {
		return auth.Claim{}, oidc.ErrCodeNotFound
	}
	return e.Claim, nil
}

// DeleteCodesBefore removes indexed codes created at or before cutoff and
// reports how many index entries it dropped. Keys that already expired
// still count.
func (s *Store) DeleteCodesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	codes, err := s.client.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan codes: %w", err)
	}
	if len(codes) == 0 {
		return 0, nil
	}

	keys := make([]string, len(codes))
	members := make([]any, len(codes))
	for i, code := range codes {
		keys[i] = s.key(code)
		members[i] = code
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	removed := pipe.ZRem(ctx, s.indexKey(), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("delete codes: %w", err)
	}
	return removed.Val(), nil
}
