package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/easyauth/pkg/logger"
	"github.com/dmitrymomot/easyauth/pkg/sanitizer"
	"github.com/dmitrymomot/easyauth/pkg/validator"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLen = 72
	maxNicknameLen = 64
)

// Service authenticates users and manages their profiles.
type Service struct {
	storage               Storage
	captcha               CaptchaVerifier
	providers             map[string]ProviderAdapter
	requireSessionForLink bool
	matchProviderUserID   bool
	bcryptCost            int
	logger                *slog.Logger
	now                   func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

type Option func(*Service)

// WithCaptcha sets the verifier consulted by Signup. Without one, Signup
// skips the CAPTCHA step.
func WithCaptcha(v CaptchaVerifier) Option {
	return func(s *Service) { s.captcha = v }
}

// WithProvider registers a third-party identity provider.
func WithProvider(a ProviderAdapter) Option {
	return func(s *Service) { s.providers[a.ProviderID()] = a }
}

// WithRequireSessionForLink controls whether linking a provider to an
// existing user requires that user's session. Defaults to true.
func WithRequireSessionForLink(require bool) Option {
	return func(s *Service) { s.requireSessionForLink = require }
}

// WithMatchProviderUserID makes a provider login fail with
// ErrAccountAlreadyLinked when the provider's user id differs from the one
// stored on the linked account. Off by default: the email and provider
// identify the account.
func WithMatchProviderUserID(match bool) Option {
	return func(s *Service) { s.matchProviderUserID = match }
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service over storage.
func NewService(storage Storage, opts ...Option) *Service {
	s := &Service{
		storage:               storage,
		providers:             make(map[string]ProviderAdapter),
		requireSessionForLink: true,
		bcryptCost:            bcrypt.DefaultCost,
		logger:                logger.Discard(),
		now:                   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the adapter registered under name.
func (s *Service) Provider(name string) (ProviderAdapter, error) {
	a, ok := s.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return a, nil
}

// Login checks email and password. Unknown emails, users without a
// password and wrong passwords all fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Claim, error) {
	email = sanitizer.NormalizeEmail(email)
	if email == "" || password == "" {
		return Claim{}, ErrInvalidCredentials
	}

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.burnHash(password)
			return Claim{}, ErrInvalidCredentials
		}
		return Claim{}, fmt.Errorf("get user: %w", err)
	}
	if user.PasswordHash == "" {
		s.burnHash(password)
		return Claim{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.DebugContext(ctx, "password mismatch",
			slog.String("email", sanitizer.MaskEmail(email)),
			logger.Component("auth"),
		)
		return Claim{}, ErrInvalidCredentials
	}
	return ClaimFor(user), nil
}

// burnHash spends a bcrypt comparison so that unknown emails take as long
// as wrong passwords.
func (s *Service) burnHash(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("easyauth-dummy-password"), s.bcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

// SignupInput is a password registration request.
type SignupInput struct {
	Email        string
	Password     string
	CaptchaToken string
	RemoteIP     string
}

// Signup verifies the CAPTCHA, validates the input and creates a user.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Claim, error) {
	if s.captcha != nil {
		if err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteIP); err != nil {
			if errors.Is(err, ErrCaptchaFailed) {
				return Claim{}, ErrCaptchaFailed
			}
			return Claim{}, fmt.Errorf("verify captcha: %w", err)
		}
	}

	email := sanitizer.NormalizeEmail(in.Email)
	if err := validator.Apply(
		validator.ValidEmail("email", email),
		validator.MinLen("password", in.Password, minPasswordLen),
		validator.MaxLen("password", in.Password, maxPasswordLen),
	); err != nil {
		return Claim{}, err
	}

	if _, err := s.storage.GetUserByEmail(ctx, email); err == nil {
		return Claim{}, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return Claim{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return Claim{}, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Nickname:     email,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return Claim{}, ErrUserExists
		}
		return Claim{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed up",
		logger.UserID(user.ID.String()),
		logger.Component("auth"),
		logger.Event("signup"),
	)
	return ClaimFor(user), nil
}

// OAuthInput is a provider callback. Session is the caller's current
// session, if any.
type OAuthInput struct {
	Provider string
	Code     string
	Session  *Claim
}

// OAuthCallback resolves the provider profile for code and signs the user
// in, registering or linking as needed. created reports whether a new user
// was registered.
//
// A profile whose email matches an existing user without an account for
// this provider is linked only when the session belongs to that user. A
// session for anyone else, or no session while linking requires one, fails
// with ErrAccountAlreadyLinked and writes nothing.
func (s *Service) OAuthCallback(ctx context.Context, in OAuthInput) (Claim, bool, error) {
	adapter, err := s.Provider(in.Provider)
	if err != nil {
		return Claim{}, false, err
	}
	if in.Code == "" {
		return Claim{}, false, ErrInvalidCode
	}

	profile, err := adapter.ResolveProfile(ctx, in.Code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) || errors.Is(err, ErrNoPrimaryEmail) {
			return Claim{}, false, err
		}
		return Claim{}, false, fmt.Errorf("resolve provider profile: %w", err)
	}
	profile.Email = sanitizer.NormalizeEmail(profile.Email)
	if profile.Email == "" || profile.ProviderUserID == "" {
		return Claim{}, false, ErrNoPrimaryEmail
	}

	log := s.logger.With(logger.Provider(in.Provider), logger.Component("auth"))

	user, err := s.storage.GetUserByEmail(ctx, profile.Email)
	if errors.Is(err, ErrUserNotFound) {
		user, err = s.register(ctx, in.Provider, profile)
		if err != nil {
			return Claim{}, false, err
		}
		log.InfoContext(ctx, "user registered via provider", logger.UserID(user.ID.String()))
		return ClaimFor(user), true, nil
	}
	if err != nil {
		return Claim{}, false, fmt.Errorf("get user: %w", err)
	}

	account, err := s.storage.GetAccount(ctx, user.ID, in.Provider)
	switch {
	case err == nil:
		if account.ProviderUserID != profile.ProviderUserID {
			if s.matchProviderUserID {
				return Claim{}, false, ErrAccountAlreadyLinked
			}
			log.WarnContext(ctx, "provider user id changed for linked account",
				logger.UserID(user.ID.String()),
				slog.String("stored", account.ProviderUserID),
				slog.String("resolved", profile.ProviderUserID),
			)
		}
		return ClaimFor(user), false, nil
	case !errors.Is(err, ErrAccountNotFound):
		return Claim{}, false, fmt.Errorf("get account: %w", err)
	}

	if !s.mayLink(user, in.Session) {
		log.WarnContext(ctx, "refused to link provider account",
			logger.UserID(user.ID.String()),
			slog.Bool("has_session", in.Session != nil),
		)
		return Claim{}, false, ErrAccountAlreadyLinked
	}

	var avatar string
	if user.Avatar == "" {
		avatar = profile.AvatarURL
	}
	acc := &Account{
		ID:             uuid.New(),
		UserID:         user.ID,
		Provider:       in.Provider,
		ProviderUserID: profile.ProviderUserID,
		Name:           profile.Name,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.storage.LinkAccount(ctx, acc, avatar); err != nil {
		if errors.Is(err, ErrAccountAlreadyLinked) {
			return Claim{}, false, ErrAccountAlreadyLinked
		}
		return Claim{}, false, fmt.Errorf("link account: %w", err)
	}
	log.InfoContext(ctx, "provider account linked", logger.UserID(user.ID.String()))
	return ClaimFor(user), false, nil
}

func (s *Service) mayLink(user *User, session *Claim) bool {
	if session != nil {
		return session.Subject == user.ID.String()
	}
	return !s.requireSessionForLink
}

func (s *Service) register(ctx context.Context, provider string, p ProviderProfile) (*User, error) {
	now := s.now().UTC()
	nickname := p.Name
	if nickname == "" {
		nickname = p.Email
	}
	user := &User{
		ID:        uuid.New(),
		Email:     p.Email,
		Avatar:    p.AvatarURL,
		Nickname:  nickname,
		CreatedAt: now,
	}
	acc := &Account{
		ID:             uuid.New(),
		UserID:         user.ID,
		Provider:       provider,
		ProviderUserID: p.ProviderUserID,
		Name:           p.Name,
		CreatedAt:      now,
	}
	if err := s.storage.CreateUserWithAccount(ctx, user, acc); err != nil {
		if errors.Is(err, ErrUserExists) {
			// Lost a race with a concurrent registration of the same email.
			return nil, ErrAccountAlreadyLinked
		}
		return nil, fmt.Errorf("create user with account: %w", err)
	}
	return user, nil
}

// User returns the user identified by claim.
func (s *Service) User(ctx context.Context, claim Claim) (*User, error) {
	id, err := claim.UserID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	user, err := s.storage.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Accounts returns the provider accounts linked to the user, ordered by
// provider name.
func (s *Service) Accounts(ctx context.Context, claim Claim) ([]*Account, error) {
	user, err := s.User(ctx, claim)
	if err != nil {
		return nil, err
	}

	names := slices.Sorted(maps.Keys(s.providers))
	accounts := make([]*Account, 0, len(names))
	for _, name := range names {
		acc, err := s.storage.GetAccount(ctx, user.ID, name)
		if errors.Is(err, ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s account: %w", name, err)
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// ProfileInput updates the user's display fields. Empty fields keep their
// current value.
type ProfileInput struct {
	Nickname string
	Avatar   string
}

// UpdateProfile changes nickname and avatar.
func (s *Service) UpdateProfile(ctx context.Context, claim Claim, in ProfileInput) (*User, error) {
	user, err := s.User(ctx, claim)
	if err != nil {
		return nil, err
	}

	in.Nickname = sanitizer.NormalizeWhitespace(in.Nickname)
	rules := []validator.Rule{validator.MaxLen("nickname", in.Nickname, maxNicknameLen)}
	if in.Avatar != "" {
		rules = append(rules, validator.ValidURL("avatar", in.Avatar))
	}
	if err := validator.Apply(rules...); err != nil {
		return nil, err
	}

	if in.Nickname != "" {
		user.Nickname = in.Nickname
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}
	if err := s.storage.UpdateProfile(ctx, user.ID, user.Nickname, user.Avatar); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ChangePassword sets a new password, which also enables password login
// for users who registered through a provider.
func (s *Service) ChangePassword(ctx context.Context, claim Claim, password string) error {
	user, err := s.User(ctx, claim)
	if err != nil {
		return err
	}
	if err := validator.Apply(
		validator.MinLen("password", password, minPasswordLen),
		validator.MaxLen("password", password, maxPasswordLen),
	); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.storage.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Unlink removes the user's account for provider. A user without a
// password keeps their last provider account.
func (s *Service) Unlink(ctx context.Context, claim Claim, provider string) error {
	if _, err := s.Provider(provider); err != nil {
		return err
	}
	user, err := s.User(ctx, claim)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		return ErrLastLoginMethod
	}
	if err := s.storage.DeleteAccount(ctx, user.ID, provider); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
