// Package keys generates and serialises the ES256 key pairs that sign
// per-application ID tokens. Keys are JWKs carrying a thumbprint key id,
// the ES256 algorithm and signature usage.
package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

var (
	ErrInvalidKey         = errors.New("keys: invalid key")
	ErrUnsupportedKeyType = errors.New("keys: unsupported key type")
)

// Pair is a serialised ES256 key pair.
type Pair struct {
	KeyID   string
	Private []byte
	Public  []byte
}

// Generate creates a P-256 key pair and returns both halves as JWK JSON.
func Generate() (Pair, error) {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return Pair{}, fmt.Errorf("keys: generate: %w", err)
	}

	priv, err := jwk.Import(raw)
	if err != nil {
		return Pair{}, fmt.Errorf("keys: import: %w", err)
	}
	kid, err := KeyID(priv)
	if err != nil {
		return Pair{}, err
	}
	if err := decorate(priv, kid); err != nil {
		return Pair{}, err
	}

	pub, err := jwk.PublicKeyOf(priv)
	if err != nil {
		return Pair{}, fmt.Errorf("keys: public key: %w", err)
	}
	if err := decorate(pub, kid); err != nil {
		return Pair{}, err
	}

	privJSON, err := json.Marshal(priv)
	if err != nil {
		return Pair{}, fmt.Errorf("keys: marshal private key: %w", err)
	}
	pubJSON, err := json.Marshal(pub)
	if err != nil {
		return Pair{}, fmt.Errorf("keys: marshal public key: %w", err)
	}

	return Pair{KeyID: kid, Private: privJSON, Public: pubJSON}, nil
}

// KeyID derives the RFC 7638 thumbprint of key, base64url encoded. Private
// and public halves of the same pair share a key id.
func KeyID(key jwk.Key) (string, error) {
	tp, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("keys: thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}

// ParsePrivate decodes a private JWK into an ECDSA signing key and its key id.
func ParsePrivate(data []byte) (*ecdsa.PrivateKey, string, error) {
	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, "", errors.Join(ErrInvalidKey, err)
	}
	kid, err := KeyID(key)
	if err != nil {
		return nil, "", err
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, "", errors.Join(ErrInvalidKey, err)
	}
	switch k := raw.(type) {
	case *ecdsa.PrivateKey:
		return k, kid, nil
	case ecdsa.PrivateKey:
		return &k, kid, nil
	default:
		return nil, "", fmt.Errorf("%w: %T", ErrUnsupportedKeyType, raw)
	}
}

// ParsePublic decodes a public JWK.
func ParsePublic(data []byte) (jwk.Key, error) {
	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, errors.Join(ErrInvalidKey, err)
	}
	return key, nil
}

// PublicSet builds a key set from serialised public JWKs. Empty entries are
// skipped.
func PublicSet(keys ...[]byte) (jwk.Set, error) {
	set := jwk.NewSet()
	for _, data := range keys {
		if len(data) == 0 {
			continue
		}
		key, err := ParsePublic(data)
		if err != nil {
			return nil, err
		}
		if err := set.AddKey(key); err != nil {
			return nil, fmt.Errorf("keys: add key: %w", err)
		}
	}
	return set, nil
}

func decorate(key jwk.Key, kid string) error {
	if err := key.Set(jwk.KeyIDKey, kid); err != nil {
		return fmt.Errorf("keys: set kid: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return fmt.Errorf("keys: set alg: %w", err)
	}
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return fmt.Errorf("keys: set use: %w", err)
	}
	return nil
}
