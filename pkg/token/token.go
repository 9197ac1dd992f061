// Package token produces compact, tamper-evident, expiring tokens carrying a
// JSON payload. It backs the OAuth state parameter, which must round-trip
// through a third party without being altered or replayed after expiry.
//
// Format: base64url(json{p, e}) "." base64url(hmac-sha256[:16]).
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const sigLen = 16

type envelope[T any] struct {
	Payload   T     `json:"p"`
	ExpiresAt int64 `json:"e"`
}

// Generate signs payload with secret. The token stops parsing after ttl.
func Generate[T any](payload T, secret string, ttl time.Duration) (string, error) {
	return GenerateAt(payload, secret, time.Now().Add(ttl))
}

// GenerateAt signs payload with an explicit expiry time.
func GenerateAt[T any](payload T, secret string, expiresAt time.Time) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	data, err := json.Marshal(envelope[T]{Payload: payload, ExpiresAt: expiresAt.Unix()})
	if err != nil {
		return "", fmt.Errorf("token: marshal payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data) + "." +
		base64.RawURLEncoding.EncodeToString(sign(data, secret)), nil
}

// Parse verifies the signature and expiry of token and decodes its payload.
func Parse[T any](token, secret string) (T, error) {
	return ParseAt[T](token, secret, time.Now())
}

// ParseAt is Parse evaluated at now.
func ParseAt[T any](token, secret string, now time.Time) (T, error) {
	var zero T
	if secret == "" {
		return zero, ErrMissingSecret
	}

	payloadPart, sigPart, ok := strings.Cut(token, ".")
	if !ok || strings.Contains(sigPart, ".") {
		return zero, ErrInvalidToken
	}
	data, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return zero, errors.Join(ErrInvalidToken, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return zero, errors.Join(ErrInvalidToken, err)
	}
	if subtle.ConstantTimeCompare(sig, sign(data, secret)) != 1 {
		return zero, ErrSignatureInvalid
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, errors.Join(ErrInvalidToken, err)
	}
	if now.Unix() >= env.ExpiresAt {
		return zero, ErrExpired
	}
	return env.Payload, nil
}

func sign(data []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return h.Sum(nil)[:sigLen]
}
