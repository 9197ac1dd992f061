package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/easyauth/pkg/logger"
	"github.com/dmitrymomot/easyauth/svc/auth"
)

// CodeLength is the length of an encoded authorization code: 24 random
// bytes in unpadded base64url.
const CodeLength = 32

const codeBytes = 24

const maxIssueAttempts = 3

// CodeService issues and redeems single-use authorization codes.
type CodeService struct {
	storage  CodeStorage
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
	logger   *slog.Logger
}

type CodeOption func(*CodeService)

func WithCodeTTL(ttl time.Duration) CodeOption {
	return func(s *CodeService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithCodeClock(now func() time.Time) CodeOption {
	return func(s *CodeService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen func() (string, error)) CodeOption {
	return func(s *CodeService) {
		if gen != nil {
			s.generate = gen
		}
	}
}

func WithCodeLogger(l *slog.Logger) CodeOption {
	return func(s *CodeService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewCodeService creates a CodeService. Codes live for DefaultCodeTTL
// unless overridden.
func NewCodeService(storage CodeStorage, opts ...CodeOption) *CodeService {
	s := &CodeService{
		storage:  storage,
		ttl:      DefaultCodeTTL,
		now:      time.Now,
		generate: GenerateCode,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL is how long an issued code stays redeemable.
func (s *CodeService) TTL() time.Duration { return s.ttl }

// GenerateCode returns a fresh random code of CodeLength characters.
func GenerateCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oidc: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Issue stores claim under a new code and returns the code.
func (s *CodeService) Issue(ctx context.Context, claim auth.Claim) (string, error) {
	if err := claim.Validate(); err != nil {
		return "", err
	}

	for range maxIssueAttempts {
		code, err := s.generate()
		if err != nil {
			return "", err
		}
		err = s.storage.StoreCode(ctx, AuthorizationCode{
			Code:      code,
			Claim:     claim,
			CreatedAt: s.now().UTC(),
		})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, ErrCodeExists) {
			return "", fmt.Errorf("store code: %w", err)
		}
		s.logger.WarnContext(ctx, "authorization code collision, retrying", logger.Component("oidc"))
	}
	return "", fmt.Errorf("store code: %w", ErrCodeExists)
}

// Redeem consumes code and returns its claim. Unknown, already redeemed
// and expired codes all yield ErrCodeNotFound.
func (s *CodeService) Redeem(ctx context.Context, code string) (auth.Claim, error) {
	if len(code) != CodeLength {
		return auth.Claim{}, ErrCodeNotFound
	}
	claim, err := s.storage.ConsumeCode(ctx, code, s.now().UTC().Add(-s.ttl))
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return auth.Claim{}, ErrCodeNotFound
		}
		return auth.Claim{}, fmt.Errorf("consume code: %w", err)
	}
	if err := claim.Validate(); err != nil {
		return auth.Claim{}, fmt.Errorf("stored claim: %w", err)
	}
	return claim, nil
}

// SweepExpired deletes codes older than the TTL and reports how many were
// removed. It is safe to call concurrently.
func (s *CodeService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.storage.DeleteCodesBefore(ctx, s.now().UTC().Add(-s.ttl))
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	return n, nil
}
