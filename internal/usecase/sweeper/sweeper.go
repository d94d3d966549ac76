// Package sweeper expires pending introduction requests whose expiry time
// has passed.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdugdh24/introductions-backend/internal/infrastructure/lock"
	"github.com/gdugdh24/introductions-backend/internal/repository"
)

const lockKey = "introductions:expiry-sweeper"

// Locker is satisfied by lock.RedisLocker and lock.LocalLocker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (lock.Release, bool, error)
}

type Config struct {
	Interval  time.Duration
	BatchSize int
	LockTTL   time.Duration
}

type Sweeper struct {
	requests repository.RequestRepository
	locker   Locker
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewSweeper builds a sweeper. locker may be nil when a single replica runs.
func NewSweeper(requests repository.RequestRepository, locker Locker, cfg Config, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &Sweeper{
		requests: requests,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("expiry sweeper started", "interval", s.cfg.Interval, "batch_size", s.cfg.BatchSize)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("expiry sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce expires every overdue pending request in batches and returns
// how many it changed. It does nothing when another holder has the lock.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, lockKey, s.cfg.LockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire sweeper lock: %w", err)
		}
		if !ok {
			s.logger.Debug("expiry sweep skipped, lock held elsewhere")
			return 0, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("release sweeper lock", "error", err)
			}
		}()
	}

	now := s.now()
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.requests.UpdateManyExpired(ctx, now, s.cfg.BatchSize)
		if err != nil {
			return total, fmt.Errorf("expire requests: %w", err)
		}
		total += n
		if n < s.cfg.BatchSize {
			break
		}
	}

	if total > 0 {
		s.logger.Info("expired introduction requests", "count", total)
	}
	return total, nil
}
