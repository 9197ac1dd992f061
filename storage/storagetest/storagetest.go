// Package storagetest holds conformance tests shared by every storage
// backend.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/easyauth/svc/auth"
	"github.com/dmitrymomot/easyauth/svc/oidc"
)

// Concurrency is the number of goroutines racing to redeem one code.
const Concurrency = 16

func newUser(email string) *auth.User {
	return &auth.User{
		ID:        uuid.New(),
		Email:     email,
		Nickname:  email,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newAccount(userID uuid.UUID, providerUserID string) *auth.Account {
	return &auth.Account{
		ID:             uuid.New(),
		UserID:         userID,
		Provider:       auth.ProviderGitHub,
		ProviderUserID: providerUserID,
		Name:           "octocat",
		CreatedAt:      time.Now().UTC(),
	}
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.NewString()[:8])
}

// Users exercises auth.Storage.
func Users(t *testing.T, s auth.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		admin := auth.ScopeAdmin
		u := newUser(uniqueEmail("create"))
		u.PasswordHash = "hash"
		u.Scope = &admin
		require.NoError(t, s.CreateUser(ctx, u))

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, got.Email)
		assert.Equal(t, "hash", got.PasswordHash)
		require.NotNil(t, got.Scope)
		assert.Equal(t, admin, *got.Scope)
		assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Millisecond)

		got, err = s.GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		assert.ErrorIs(t, s.CreateUser(ctx, newUser(u.Email)), auth.ErrUserExists)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.GetUserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
		_, err = s.GetUserByEmail(ctx, uniqueEmail("missing"))
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
		_, err = s.GetAccount(ctx, uuid.New(), auth.ProviderGitHub)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("create with account is atomic", func(t *testing.T) {
		taken := newUser(uniqueEmail("taken"))
		require.NoError(t, s.CreateUser(ctx, taken))

		dup := newUser(taken.Email)
		err := s.CreateUserWithAccount(ctx, dup, newAccount(dup.ID, "1"))
		assert.ErrorIs(t, err, auth.ErrUserExists)
		_, err = s.GetAccount(ctx, dup.ID, auth.ProviderGitHub)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)

		u := newUser(uniqueEmail("oauth"))
		require.NoError(t, s.CreateUserWithAccount(ctx, u, newAccount(u.ID, "2")))
		acc, err := s.GetAccount(ctx, u.ID, auth.ProviderGitHub)
		require.NoError(t, err)
		assert.Equal(t, "2", acc.ProviderUserID)
		assert.Equal(t, u.ID, acc.UserID)
	})

	t.Run("link to missing user", func(t *testing.T) {
		err := s.LinkAccount(ctx, newAccount(uuid.New(), "orphan"), "")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("link backfills avatar once", func(t *testing.T) {
		u := newUser(uniqueEmail("link"))
		require.NoError(t, s.CreateUser(ctx, u))

		require.NoError(t, s.LinkAccount(ctx, newAccount(u.ID, "3"), "https://avatars.example.com/3"))
		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://avatars.example.com/3", got.Avatar)

		err = s.LinkAccount(ctx, newAccount(u.ID, "4"), "https://avatars.example.com/4")
		assert.ErrorIs(t, err, auth.ErrAccountAlreadyLinked)
		got, err = s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://avatars.example.com/3", got.Avatar)
	})

	t.Run("profile password and unlink", func(t *testing.T) {
		u := newUser(uniqueEmail("profile"))
		require.NoError(t, s.CreateUserWithAccount(ctx, u, newAccount(u.ID, "5")))

		require.NoError(t, s.UpdateProfile(ctx, u.ID, "nick", "https://a.example.com/x.png"))
		require.NoError(t, s.UpdatePasswordHash(ctx, u.ID, "new-hash"))
		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "nick", got.Nickname)
		assert.Equal(t, "https://a.example.com/x.png", got.Avatar)
		assert.Equal(t, "new-hash", got.PasswordHash)

		require.NoError(t, s.DeleteAccount(ctx, u.ID, auth.ProviderGitHub))
		assert.ErrorIs(t, s.DeleteAccount(ctx, u.ID, auth.ProviderGitHub), auth.ErrAccountNotFound)
		assert.ErrorIs(t, s.UpdateProfile(ctx, uuid.New(), "x", ""), auth.ErrUserNotFound)
	})
}

// Apps exercises oidc.AppStorage.
func Apps(t *testing.T, s oidc.AppStorage) {
	t.Helper()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Millisecond)
	var ids []string
	for i := range 3 {
		app := &oidc.App{
			ClientID:    uuid.NewString(),
			Secret:      "secret",
			RedirectURI: "https://app.example.com/cb",
			Name:        fmt.Sprintf("app-%d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		if i == 0 {
			app.PublicKey = []byte(`{"kty":"EC"}`)
			app.PrivateKey = []byte(`{"kty":"EC","d":"x"}`)
		}
		require.NoError(t, s.CreateApp(ctx, app))
		ids = append(ids, app.ClientID)
	}

	assert.ErrorIs(t, s.CreateApp(ctx, &oidc.App{ClientID: ids[0], CreatedAt: base}), oidc.ErrAppExists)

	got, err := s.GetApp(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "app-0", got.Name)
	assert.JSONEq(t, `{"kty":"EC"}`, string(got.PublicKey))
	assert.True(t, got.HasKeyPair())

	got, err = s.GetApp(ctx, ids[1])
	require.NoError(t, err)
	assert.False(t, got.HasKeyPair())

	all, err := s.ListApps(ctx, 100, 0)
	require.NoError(t, err)
	var seen []string
	for _, a := range all {
		for _, id := range ids {
			if a.ClientID == id {
				seen = append(seen, id)
			}
		}
	}
	assert.Equal(t, ids, seen)

	require.NoError(t, s.DeleteApp(ctx, ids[1]))
	assert.ErrorIs(t, s.DeleteApp(ctx, ids[1]), oidc.ErrAppNotFound)
	_, err = s.GetApp(ctx, ids[1])
	assert.ErrorIs(t, err, oidc.ErrAppNotFound)
}

// Codes exercises oidc.CodeStorage.
func Codes(t *testing.T, s oidc.CodeStorage) {
	t.Helper()
	ctx := context.Background()
	admin := auth.ScopeAdmin
	claim := auth.Claim{Subject: uuid.NewString(), Scope: &admin}
	now := time.Now().UTC()

	newCode := func() string {
		code, err := oidc.GenerateCode()
		require.NoError(t, err)
		return code
	}

	t.Run("consume once", func(t *testing.T) {
		code := newCode()
		require.NoError(t, s.StoreCode(ctx, oidc.AuthorizationCode{Code: code, Claim: claim, CreatedAt: now}))
		assert.ErrorIs(t, s.StoreCode(ctx, oidc.AuthorizationCode{Code: code, Claim: claim, CreatedAt: now}), oidc.ErrCodeExists)

		got, err := s.ConsumeCode(ctx, code, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, claim, got)

		_, err = s.ConsumeCode(ctx, code, now.Add(-time.Minute))
		assert.ErrorIs(t, err, oidc.ErrCodeNotFound)
	})

	t.Run("nil scope round trips", func(t *testing.T) {
		code := newCode()
		plain := auth.Claim{Subject: uuid.NewString()}
		require.NoError(t, s.StoreCode(ctx, oidc.AuthorizationCode{Code: code, Claim: plain, CreatedAt: now}))
		got, err := s.ConsumeCode(ctx, code, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	})

	t.Run("expired code is not consumed", func(t *testing.T) {
		code := newCode()
		created := now.Add(-3 * time.Minute)
		require.NoError(t, s.StoreCode(ctx, oidc.AuthorizationCode{Code: code, Claim: claim, CreatedAt: created}))
		_, err := s.ConsumeCode(ctx, code, now.Add(-2*time.Minute))
		assert.ErrorIs(t, err, oidc.ErrCodeNotFound)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := s.ConsumeCode(ctx, newCode(), now.Add(-time.Minute))
		assert.ErrorIs(t, err, oidc.ErrCodeNotFound)
	})

	t.Run("delete before cutoff", func(t *testing.T) {
		old, fresh := newCode(), newCode()
		require.NoError(t, s.StoreCode(ctx, oidc.AuthorizationCode{Code: old, Claim: claim, CreatedAt: now.Add(-10 * time.Minute)}))
		require.NoError(t, s.StoreCode(ctx, oidc.AuthorizationCode{Code: fresh, Claim: claim, CreatedAt: now}))

		n, err := s.DeleteCodesBefore(ctx, now.Add(-5*time.Minute))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))

		_, err = s.ConsumeCode(ctx, old, now.Add(-time.Hour))
		assert.ErrorIs(t, err, oidc.ErrCodeNotFound)
		_, err = s.ConsumeCode(ctx, fresh, now.Add(-time.Minute))
		assert.NoError(t, err)

		n, err = s.DeleteCodesBefore(ctx, now.Add(-5*time.Minute))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("concurrent consume succeeds once", func(t *testing.T) {
		code := newCode()
		require.NoError(t, s.StoreCode(ctx, oidc.AuthorizationCode{Code: code, Claim: claim, CreatedAt: now}))

		var (
			wins  atomic.Int32
			wg    sync.WaitGroup
			start = make(chan struct{})
		)
		for range Concurrency {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := s.ConsumeCode(ctx, code, now.Add(-time.Minute))
				switch {
				case err == nil:
					wins.Add(1)
				case !errors.Is(err, oidc.ErrCodeNotFound):
					t.Errorf("consume: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()
		assert.EqualValues(t, 1, wins.Load())
	})
}
