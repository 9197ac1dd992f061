package oidc

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/easyauth/pkg/logger"
)

// ExpiredSweeper removes expired records.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically removes expired authorization codes.
type Sweeper struct {
	target   ExpiredSweeper
	interval time.Duration
	logger   *slog.Logger
}

type SweeperOption func(*Sweeper)

func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithSweeperLogger(l *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSweeper(target ExpiredSweeper, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		target:   target,
		interval: DefaultSweepInterval,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start sweeps once immediately and then on every tick until ctx is done.
// Failures are logged and retried on the next tick. It returns ctx.Err().
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper shutting down", logger.Component("sweeper"))
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	n, err := s.target.SweepExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.ErrorContext(ctx, "sweep expired codes failed",
			logger.Error(err),
			logger.Component("sweeper"),
		)
		return
	}
	if n > 0 {
		s.logger.DebugContext(ctx, "swept expired codes",
			logger.Count(n),
			logger.Duration(time.Since(start)),
			logger.Component("sweeper"),
		)
	}
}
