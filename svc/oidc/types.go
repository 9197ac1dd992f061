package oidc

import (
	"time"

	"github.com/dmitrymomot/easyauth/svc/auth"
)

// App is a registered client application.
type App struct {
	ClientID    string
	Secret      string
	RedirectURI string
	Name        string
	CreatedAt   time.Time
	PublicKey   []byte // JWK JSON, nil for applications without a key pair
	PrivateKey  []byte
}

// HasKeyPair reports whether the application signs ID tokens with ES256.
func (a *App) HasKeyPair() bool {
	return len(a.PrivateKey) > 0 && len(a.PublicKey) > 0
}

// AuthorizationCode is a pending claim waiting to be redeemed.
type AuthorizationCode struct {
	Code      string
	Claim     auth.Claim
	CreatedAt time.Time
}
