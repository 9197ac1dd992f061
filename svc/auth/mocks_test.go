package auth_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/easyauth/svc/auth"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockStorage) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockStorage) CreateUser(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockStorage) CreateUserWithAccount(ctx context.Context, user *auth.User, account *auth.Account) error {
	return m.Called(ctx, user, account).Error(0)
}

func (m *MockStorage) GetAccount(ctx context.Context, userID uuid.UUID, provider string) (*auth.Account, error) {
	args := m.Called(ctx, userID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

func (m *MockStorage) LinkAccount(ctx context.Context, account *auth.Account, avatar string) error {
	return m.Called(ctx, account, avatar).Error(0)
}

func (m *MockStorage) DeleteAccount(ctx context.Context, userID uuid.UUID, provider string) error {
	return m.Called(ctx, userID, provider).Error(0)
}

func (m *MockStorage) UpdateProfile(ctx context.Context, id uuid.UUID, nickname, avatar string) error {
	return m.Called(ctx, id, nickname, avatar).Error(0)
}

func (m *MockStorage) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) ProviderID() string { return auth.ProviderGitHub }

func (m *MockProvider) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (m *MockProvider) ResolveProfile(ctx context.Context, code string) (auth.ProviderProfile, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(auth.ProviderProfile), args.Error(1)
}
