package auth

import (
	"context"

	"github.com/google/uuid"
)

// Storage persists users and their linked accounts.
//
// Lookups return ErrUserNotFound or ErrAccountNotFound on a miss. Inserts
// that hit the unique email constraint return ErrUserExists, and an Account
// insert that hits the (user, provider) constraint returns
// ErrAccountAlreadyLinked. CreateUserWithAccount and LinkAccount are
// transactional: all of their writes apply or none do.
type Storage interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	CreateUserWithAccount(ctx context.Context, user *User, account *Account) error

	GetAccount(ctx context.Context, userID uuid.UUID, provider string) (*Account, error)
	// LinkAccount inserts account and, when avatar is not empty, sets it on
	// the owning user if that user has no avatar yet.
	LinkAccount(ctx context.Context, account *Account, avatar string) error
	DeleteAccount(ctx context.Context, userID uuid.UUID, provider string) error

	UpdateProfile(ctx context.Context, id uuid.UUID, nickname, avatar string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}
