package easyauth

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/easyauth/pkg/idtoken"
)

// Claims are the verified contents of an ID token.
type Claims struct {
	Subject   string
	Scope     *string
	ExpiresAt time.Time
}

// IsAdmin reports whether the user holds the provider's admin scope.
func (c Claims) IsAdmin() bool {
	return c.Scope != nil && *c.Scope == "admin"
}

// VerifyIDToken checks the signature and expiry of an ID token issued to
// this application.
func (c *Client) VerifyIDToken(ctx context.Context, token string) (*Claims, error) {
	var (
		claims *idtoken.Claims
		err    error
	)
	if c.sharedSecret {
		claims, err = idtoken.Verify(token, []idtoken.VerificationKey{idtoken.Secret([]byte(c.clientSecret))})
	} else {
		set, setErr := c.keySet(ctx)
		if setErr != nil {
			return nil, setErr
		}
		claims, err = idtoken.VerifyKeySet(token, set)
	}
	if err != nil {
		if errors.Is(err, idtoken.ErrTokenExpired) {
			return nil, errors.Join(ErrTokenExpired, err)
		}
		return nil, errors.Join(ErrTokenInvalid, err)
	}

	out := &Claims{Subject: claims.Subject, Scope: claims.Scope}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
