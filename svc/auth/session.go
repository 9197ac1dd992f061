package auth

import (
	"errors"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/easyauth/pkg/jwt"
)

// DefaultSessionTTL is the lifetime of session tokens and their cookie.
const DefaultSessionTTL = 24 * time.Hour

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "id_token"

type sessionClaims struct {
	gojwt.RegisteredClaims
	Scope *string `json:"scope"`
}

func (c sessionClaims) Validate() error {
	return Claim{Subject: c.Subject, Scope: c.Scope}.Validate()
}

// SessionCodec signs and verifies HS256 session tokens.
type SessionCodec struct {
	jwt *jwt.Service
	ttl time.Duration
	now func() time.Time
}

type SessionOption func(*SessionCodec)

func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(c *SessionCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSessionClock overrides the clock for both issuing and expiry checks.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(c *SessionCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewSessionCodec creates a codec keyed by secret.
func NewSessionCodec(secret []byte, opts ...SessionOption) (*SessionCodec, error) {
	c := &SessionCodec{ttl: DefaultSessionTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	svc, err := jwt.New(secret, jwt.WithClock(c.now))
	if err != nil {
		return nil, err
	}
	c.jwt = svc
	return c, nil
}

// TTL is the token lifetime.
func (c *SessionCodec) TTL() time.Duration { return c.ttl }

// Sign issues a session token for claim.
func (c *SessionCodec) Sign(claim Claim) (string, error) {
	if err := claim.Validate(); err != nil {
		return "", err
	}
	now := c.now()
	return c.jwt.Generate(sessionClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   claim.Subject,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(c.ttl)),
		},
		Scope: claim.Scope,
	})
}

// Verify returns the claim in token. It fails with ErrTokenExpired for a
// correctly signed token past its expiry and ErrTokenInvalid otherwise.
func (c *SessionCodec) Verify(token string) (Claim, error) {
	var sc sessionClaims
	if err := c.jwt.Parse(token, &sc); err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return Claim{}, ErrTokenExpired
		}
		return Claim{}, ErrTokenInvalid
	}
	return Claim{Subject: sc.Subject, Scope: sc.Scope}, nil
}
