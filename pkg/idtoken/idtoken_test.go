package idtoken_test

import (
	"crypto/ecdsa"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/easyauth/pkg/idtoken"
	"github.com/dmitrymomot/easyauth/pkg/keys"
)

type keyPair struct {
	pair   keys.Pair
	signer *ecdsa.PrivateKey
}

func newKeyPair(t *testing.T) keyPair {
	t.Helper()
	pair, err := keys.Generate()
	require.NoError(t, err)
	signer, _, err := keys.ParsePrivate(pair.Private)
	require.NoError(t, err)
	return keyPair{pair: pair, signer: signer}
}

func (k keyPair) signing() idtoken.SigningKey {
	return idtoken.ES256(k.signer, k.pair.KeyID)
}

func (k keyPair) verification() idtoken.VerificationKey {
	return idtoken.VerificationKey{ID: k.pair.KeyID, Key: &k.signer.PublicKey}
}

func TestSignVerifyES256(t *testing.T) {
	t.Parallel()

	kp := newKeyPair(t)
	now := time.Now()
	scope := "admin"

	token, err := idtoken.Sign(kp.signing(), "user-1", &scope, now, time.Hour)
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &idtoken.Claims{})
	require.NoError(t, err)
	assert.Equal(t, "ES256", parsed.Method.Alg())
	assert.Equal(t, kp.pair.KeyID, parsed.Header["kid"])

	claims, err := idtoken.Verify(token, []idtoken.VerificationKey{kp.verification()})
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	require.NotNil(t, claims.Scope)
	assert.Equal(t, "admin", *claims.Scope)
	assert.WithinDuration(t, now.Add(time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestSignVerifyHS256(t *testing.T) {
	t.Parallel()

	secret := []byte("0123456789abcdef0123456789abcdef")
	token, err := idtoken.Sign(idtoken.HS256(secret), "user-2", nil, time.Now(), 0)
	require.NoError(t, err)

	claims, err := idtoken.Verify(token, []idtoken.VerificationKey{idtoken.Secret(secret)})
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.Subject)
	assert.Nil(t, claims.Scope)
	assert.WithinDuration(t, time.Now().Add(idtoken.DefaultTTL), claims.ExpiresAt.Time, time.Minute)

	_, err = idtoken.Verify(token, []idtoken.VerificationKey{idtoken.Secret([]byte("wrong-secret-wrong-secret-wrong-s"))})
	assert.ErrorIs(t, err, idtoken.ErrTokenInvalid)
}

func TestVerifyRejectsEveryFlippedByte(t *testing.T) {
	t.Parallel()

	kp := newKeyPair(t)
	secret := []byte("0123456789abcdef0123456789abcdef")

	tests := []struct {
		name   string
		signer idtoken.SigningKey
		keys   []idtoken.VerificationKey
	}{
		{"ES256", kp.signing(), []idtoken.VerificationKey{kp.verification()}},
		{"HS256", idtoken.HS256(secret), []idtoken.VerificationKey{idtoken.Secret(secret)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			token, err := idtoken.Sign(tt.signer, "user-3", nil, time.Now(), time.Hour)
			require.NoError(t, err)
			_, err = idtoken.Verify(token, tt.keys)
			require.NoError(t, err)

			const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
			for i := range len(token) {
				idx := strings.IndexByte(alphabet, token[i])
				if idx < 0 {
					continue
				}
				b := []byte(token)
				b[i] = alphabet[idx^1]
				_, err := idtoken.Verify(string(b), tt.keys)
				assert.ErrorIs(t, err, idtoken.ErrTokenInvalid, "byte %d", i)
			}
		})
	}
}

func TestSignRejectsMissingInput(t *testing.T) {
	t.Parallel()

	_, err := idtoken.Sign(idtoken.SigningKey{}, "user", nil, time.Now(), time.Hour)
	assert.ErrorIs(t, err, idtoken.ErrMissingSigningKey)

	_, err = idtoken.Sign(idtoken.HS256(nil), "user", nil, time.Now(), time.Hour)
	assert.ErrorIs(t, err, idtoken.ErrMissingSigningKey)

	_, err = idtoken.Sign(idtoken.HS256([]byte("secret")), "", nil, time.Now(), time.Hour)
	assert.ErrorIs(t, err, idtoken.ErrTokenInvalid)
}

func TestVerifyKeyIteration(t *testing.T) {
	t.Parallel()

	a, b, c := newKeyPair(t), newKeyPair(t), newKeyPair(t)

	t.Run("matching key found after mismatches", func(t *testing.T) {
		t.Parallel()
		token, err := idtoken.Sign(idtoken.ES256(c.signer, ""), "user-3", nil, time.Now(), time.Hour)
		require.NoError(t, err)

		claims, err := idtoken.Verify(token, []idtoken.VerificationKey{
			a.verification(), b.verification(), c.verification(),
		})
		require.NoError(t, err)
		assert.Equal(t, "user-3", claims.Subject)
	})

	t.Run("stale kid still verifies against another key", func(t *testing.T) {
		t.Parallel()
		token, err := idtoken.Sign(idtoken.ES256(b.signer, a.pair.KeyID), "user-4", nil, time.Now(), time.Hour)
		require.NoError(t, err)

		claims, err := idtoken.Verify(token, []idtoken.VerificationKey{a.verification(), b.verification()})
		require.NoError(t, err)
		assert.Equal(t, "user-4", claims.Subject)
	})

	t.Run("no key matches", func(t *testing.T) {
		t.Parallel()
		token, err := idtoken.Sign(c.signing(), "user-5", nil, time.Now(), time.Hour)
		require.NoError(t, err)

		_, err = idtoken.Verify(token, []idtoken.VerificationKey{a.verification(), b.verification()})
		assert.ErrorIs(t, err, idtoken.ErrTokenInvalid)
	})

	t.Run("expired aborts with expiry", func(t *testing.T) {
		t.Parallel()
		token, err := idtoken.Sign(b.signing(), "user-6", nil, time.Now().Add(-2*time.Hour), time.Hour)
		require.NoError(t, err)

		_, err = idtoken.Verify(token, []idtoken.VerificationKey{a.verification(), b.verification()})
		assert.ErrorIs(t, err, idtoken.ErrTokenExpired)
		assert.NotErrorIs(t, err, idtoken.ErrTokenInvalid)
	})

	t.Run("expired under a foreign key is invalid", func(t *testing.T) {
		t.Parallel()
		token, err := idtoken.Sign(c.signing(), "user-7", nil, time.Now().Add(-2*time.Hour), time.Hour)
		require.NoError(t, err)

		_, err = idtoken.Verify(token, []idtoken.VerificationKey{a.verification()})
		assert.ErrorIs(t, err, idtoken.ErrTokenInvalid)
	})

	t.Run("malformed token aborts", func(t *testing.T) {
		t.Parallel()
		_, err := idtoken.Verify("not-a-token", []idtoken.VerificationKey{a.verification()})
		assert.ErrorIs(t, err, idtoken.ErrTokenInvalid)
	})

	t.Run("wrong key type is not a candidate", func(t *testing.T) {
		t.Parallel()
		token, err := idtoken.Sign(a.signing(), "user-8", nil, time.Now(), time.Hour)
		require.NoError(t, err)

		_, err = idtoken.Verify(token, []idtoken.VerificationKey{idtoken.Secret([]byte("secret"))})
		assert.ErrorIs(t, err, idtoken.ErrNoCandidateKeys)
	})

	t.Run("unsupported algorithm aborts", func(t *testing.T) {
		t.Parallel()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, idtoken.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-9",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = idtoken.Verify(token, []idtoken.VerificationKey{idtoken.Secret([]byte("secret"))})
		assert.ErrorIs(t, err, idtoken.ErrTokenInvalid)
	})

	t.Run("clock override", func(t *testing.T) {
		t.Parallel()
		token, err := idtoken.Sign(a.signing(), "user-10", nil, time.Now(), time.Hour)
		require.NoError(t, err)

		_, err = idtoken.Verify(token, []idtoken.VerificationKey{a.verification()},
			idtoken.WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) }))
		assert.ErrorIs(t, err, idtoken.ErrTokenExpired)
	})
}

func TestVerifyKeySet(t *testing.T) {
	t.Parallel()

	a, b := newKeyPair(t), newKeyPair(t)
	set, err := keys.PublicSet(a.pair.Public, b.pair.Public)
	require.NoError(t, err)

	exported, err := idtoken.KeysFromSet(set)
	require.NoError(t, err)
	require.Len(t, exported, 2)
	assert.Equal(t, a.pair.KeyID, exported[0].ID)

	token, err := idtoken.Sign(b.signing(), "user-11", nil, time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := idtoken.VerifyKeySet(token, set)
	require.NoError(t, err)
	assert.Equal(t, "user-11", claims.Subject)
}
