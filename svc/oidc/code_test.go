package oidc_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/easyauth/svc/auth"
	"github.com/dmitrymomot/easyauth/svc/oidc"
)

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 100 {
		code, err := oidc.GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, oidc.CodeLength)
		assert.Regexp(t, `^[A-Za-z0-9_-]+$`, code)
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

func TestCodeService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	admin := auth.ScopeAdmin
	claim := auth.Claim{Subject: "user-1", Scope: &admin}

	t.Run("single use", func(t *testing.T) {
		t.Parallel()
		svc := oidc.NewCodeService(newMemCodes())
		code, err := svc.Issue(ctx, claim)
		require.NoError(t, err)

		got, err := svc.Redeem(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, claim, got)

		_, err = svc.Redeem(ctx, code)
		assert.ErrorIs(t, err, oidc.ErrCodeNotFound)
	})

	t.Run("expires after ttl", func(t *testing.T) {
		t.Parallel()
		clk := newClock()
		store := newMemCodes()
		svc := oidc.NewCodeService(store, oidc.WithCodeClock(clk.Now))

		fresh, err := svc.Issue(ctx, claim)
		require.NoError(t, err)
		stale, err := svc.Issue(ctx, claim)
		require.NoError(t, err)

		clk.Advance(oidc.DefaultCodeTTL - time.Second)
		_, err = svc.Redeem(ctx, fresh)
		require.NoError(t, err)

		clk.Advance(2 * time.Second)
		_, err = svc.Redeem(ctx, stale)
		assert.ErrorIs(t, err, oidc.ErrCodeNotFound)
	})

	t.Run("unknown and malformed codes look the same", func(t *testing.T) {
		t.Parallel()
		svc := oidc.NewCodeService(newMemCodes())
		for _, code := range []string{"", "short", "abcdefghijklmnopqrstuvwxyz012345"} {
			_, err := svc.Redeem(ctx, code)
			assert.ErrorIs(t, err, oidc.ErrCodeNotFound, code)
		}
	})

	t.Run("invalid claim not stored", func(t *testing.T) {
		t.Parallel()
		store := newMemCodes()
		_, err := oidc.NewCodeService(store).Issue(ctx, auth.Claim{})
		require.Error(t, err)
		assert.Zero(t, store.len())
	})

	t.Run("retries collisions", func(t *testing.T) {
		t.Parallel()
		store := newMemCodes()
		const dup = "dupdupdupdupdupdupdupdupdupdupdu"
		require.NoError(t, store.StoreCode(ctx, oidc.AuthorizationCode{Code: dup, Claim: claim, CreatedAt: time.Now()}))

		var calls int
		gen := func() (string, error) {
			calls++
			if calls == 1 {
				return dup, nil
			}
			return oidc.GenerateCode()
		}
		code, err := oidc.NewCodeService(store, oidc.WithCodeGenerator(gen)).Issue(ctx, claim)
		require.NoError(t, err)
		assert.NotEqual(t, dup, code)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		t.Parallel()
		store := newMemCodes()
		const dup = "dupdupdupdupdupdupdupdupdupdupdu"
		require.NoError(t, store.StoreCode(ctx, oidc.AuthorizationCode{Code: dup, Claim: claim, CreatedAt: time.Now()}))
		gen := func() (string, error) { return dup, nil }
		_, err := oidc.NewCodeService(store, oidc.WithCodeGenerator(gen)).Issue(ctx, claim)
		assert.ErrorIs(t, err, oidc.ErrCodeExists)
	})

	t.Run("sweep removes only expired codes", func(t *testing.T) {
		t.Parallel()
		clk := newClock()
		store := newMemCodes()
		svc := oidc.NewCodeService(store, oidc.WithCodeClock(clk.Now))

		_, err := svc.Issue(ctx, claim)
		require.NoError(t, err)
		clk.Advance(oidc.DefaultCodeTTL)
		live, err := svc.Issue(ctx, claim)
		require.NoError(t, err)

		n, err := svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = svc.Redeem(ctx, live)
		assert.NoError(t, err)
	})

	t.Run("concurrent redemption succeeds once", func(t *testing.T) {
		t.Parallel()
		svc := oidc.NewCodeService(newMemCodes())
		code, err := svc.Issue(ctx, claim)
		require.NoError(t, err)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Redeem(ctx, code); err == nil {
					wins.Add(1)
				} else if !errors.Is(err, oidc.ErrCodeNotFound) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 1, wins.Load())
	})
}
