package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ScopeAdmin grants access to the application registry.
const ScopeAdmin = "admin"

// User is a local account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // empty for users who only sign in through a provider
	Avatar       string
	Nickname     string
	Scope        *string
	CreatedAt    time.Time
}

// Account links a User to a third-party identity. A user has at most one
// Account per provider.
type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Provider       string
	ProviderUserID string
	Name           string
	CreatedAt      time.Time
}

// Claim is the identity carried by session tokens, authorization codes and
// ID tokens.
type Claim struct {
	Subject string  `json:"sub"`
	Scope   *string `json:"scope"`
}

var errEmptySubject = errors.New("auth: claim has no subject")

// Validate reports whether the claim can be signed or stored.
func (c Claim) Validate() error {
	if c.Subject == "" {
		return errEmptySubject
	}
	if c.Scope != nil && *c.Scope == "" {
		return errors.New("auth: claim scope is empty")
	}
	return nil
}

// IsAdmin reports whether the claim carries the admin scope.
func (c Claim) IsAdmin() bool {
	return c.Scope != nil && *c.Scope == ScopeAdmin
}

// UserID parses the subject.
func (c Claim) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// ClaimFor builds the claim for user.
func ClaimFor(u *User) Claim {
	return Claim{Subject: u.ID.String(), Scope: u.Scope}
}
