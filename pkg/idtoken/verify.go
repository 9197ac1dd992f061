package idtoken

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/dmitrymomot/easyauth/pkg/keys"
)

// VerificationKey is a public key or shared secret a token may be signed with.
type VerificationKey struct {
	ID  string
	Key any
}

// Secret wraps a shared HS256 secret as a verification key.
func Secret(secret []byte) VerificationKey {
	return VerificationKey{Key: secret}
}

// Option configures verification.
type Option func(*verifier)

type verifier struct {
	now func() time.Time
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// Verify checks token against keys and returns its claims.
//
// Keys whose id matches the token's kid header are tried first, followed by
// the rest in their given order. Keys of the wrong type for the token's
// algorithm are not candidates.
func Verify(token string, keys []VerificationKey, opts ...Option) (*Claims, error) {
	v := verifier{now: time.Now}
	for _, opt := range opts {
		opt(&v)
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(token, &Claims{})
	if err != nil {
		return nil, errors.Join(ErrTokenInvalid, err)
	}
	alg := unverified.Method.Alg()
	if alg != AlgES256 && alg != AlgHS256 {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrTokenInvalid, alg)
	}
	kid, _ := unverified.Header["kid"].(string)

	candidates := orderCandidates(alg, kid, keys)
	if len(candidates) == 0 {
		return nil, errors.Join(ErrTokenInvalid, ErrNoCandidateKeys)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	for _, key := range candidates {
		claims := &Claims{}
		_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return key.Key, nil
		})
		switch {
		case err == nil:
			return claims, nil
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			continue
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.Join(ErrTokenExpired, err)
		default:
			return nil, errors.Join(ErrTokenInvalid, err)
		}
	}

	return nil, fmt.Errorf("%w: signature does not match any key", ErrTokenInvalid)
}

// VerifyKeySet verifies token against the public keys in set.
func VerifyKeySet(token string, set jwk.Set, opts ...Option) (*Claims, error) {
	keys, err := KeysFromSet(set)
	if err != nil {
		return nil, err
	}
	return Verify(token, keys, opts...)
}

// KeysFromSet exports every ECDSA public key in set. Keys of other types
// are skipped.
func KeysFromSet(set jwk.Set) ([]VerificationKey, error) {
	if set == nil {
		return nil, nil
	}
	out := make([]VerificationKey, 0, set.Len())
	for i := range set.Len() {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		var raw any
		if err := jwk.Export(key, &raw); err != nil {
			return nil, fmt.Errorf("idtoken: export key: %w", err)
		}
		var pub *ecdsa.PublicKey
		switch k := raw.(type) {
		case *ecdsa.PublicKey:
			pub = k
		case ecdsa.PublicKey:
			pub = &k
		default:
			continue
		}
		kid, err := keys.KeyID(key)
		if err != nil {
			return nil, err
		}
		out = append(out, VerificationKey{ID: kid, Key: pub})
	}
	return out, nil
}

func orderCandidates(alg, kid string, keys []VerificationKey) []VerificationKey {
	usable := make([]VerificationKey, 0, len(keys))
	for _, k := range keys {
		if fits(alg, k.Key) {
			usable = append(usable, k)
		}
	}
	if kid == "" {
		return usable
	}

	ordered := make([]VerificationKey, 0, len(usable))
	for _, k := range usable {
		if k.ID == kid {
			ordered = append(ordered, k)
		}
	}
	for _, k := range usable {
		if k.ID != kid {
			ordered = append(ordered, k)
		}
	}
	return ordered
}

func fits(alg string, key any) bool {
	switch alg {
	case AlgES256:
		_, ok := key.(*ecdsa.PublicKey)
		return ok
	case AlgHS256:
		b, ok := key.([]byte)
		return ok && len(b) > 0
	}
	return false
}
