// Package idtoken signs and verifies the ID tokens handed to client
// applications.
//
// Tokens are signed either with an application's ES256 private key or, for
// applications without a key pair, with HS256 keyed by the application
// secret. Verification walks an ordered list of candidate keys: a signature
// mismatch moves on to the next key, while a structural failure (malformed
// token, unsupported algorithm, expiry) stops immediately.
package idtoken

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AlgES256 = "ES256"
	AlgHS256 = "HS256"
)

// DefaultTTL is the lifetime of issued ID tokens.
const DefaultTTL = 24 * time.Hour

// Claims is the ID token payload: the registered claims plus an optional
// scope that serialises as null when absent.
type Claims struct {
	jwt.RegisteredClaims
	Scope *string `json:"scope"`
}

// Validate is called by the parser after the registered claims pass.
func (c Claims) Validate() error {
	if c.Subject == "" {
		return errors.New("idtoken: missing subject")
	}
	return nil
}

// SigningKey is a private key used to sign a token.
type SigningKey struct {
	ID     string
	alg    string
	key    any
	secret bool
}

// ES256 wraps an ECDSA P-256 private key and its key id.
func ES256(key *ecdsa.PrivateKey, kid string) SigningKey {
	return SigningKey{ID: kid, alg: AlgES256, key: key}
}

// HS256 wraps a shared secret.
func HS256(secret []byte) SigningKey {
	return SigningKey{alg: AlgHS256, key: secret, secret: true}
}

// Alg reports the JWS algorithm the key signs with.
func (k SigningKey) Alg() string { return k.alg }

// Sign issues a token for subject and scope that expires after ttl.
func Sign(key SigningKey, subject string, scope *string, now time.Time, ttl time.Duration) (string, error) {
	if key.key == nil {
		return "", ErrMissingSigningKey
	}
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrTokenInvalid)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: scope,
	}

	var method jwt.SigningMethod = jwt.SigningMethodES256
	if key.alg == AlgHS256 {
		method = jwt.SigningMethodHS256
	}
	if k, ok := key.key.([]byte); ok && len(k) == 0 {
		return "", ErrMissingSigningKey
	}

	token := jwt.NewWithClaims(method, claims)
	if key.ID != "" {
		token.Header["kid"] = key.ID
	}
	signed, err := token.SignedString(key.key)
	if err != nil {
		return "", fmt.Errorf("idtoken: sign: %w", err)
	}
	return signed, nil
}
