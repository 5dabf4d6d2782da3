package services

import (
	"context"
	"fmt"
	"time"

	"bidmarket/internal/domain"
	"bidmarket/pkg/logger"
)

type LockSettings struct {
	KeyPrefix string
	WaitTime  time.Duration
	LeaseTime time.Duration
}

// AuctionLocker serializes critical sections per auction id.
type AuctionLocker struct {
	locks    domain.LockManager
	settings LockSettings
	log      logger.Logger
}

func NewAuctionLocker(locks domain.LockManager, settings LockSettings, log logger.Logger) *AuctionLocker {
	return &AuctionLocker{
		locks:    locks,
		settings: settings,
		log:      log,
	}
}

func (l *AuctionLocker) key(auctionID string) string {
	return l.settings.KeyPrefix + auctionID
}

// WithLock runs fn while holding the auction's lock. The lock is released on
// every exit path, including a panic in fn.
func (l *AuctionLocker) WithLock(ctx context.Context, auctionID string, fn func() error) error {
	key := l.key(auctionID)

	lock, held, err := l.locks.TryAcquire(ctx, key, l.settings.WaitTime, l.settings.LeaseTime)
	if err != nil {
		return fmt.Errorf("%w: acquire lock %s: %w", domain.ErrDependencyFailure, key, err)
	}
	if !held {
		l.log.Warn("Lock wait bound exceeded", "key", key, "wait", l.settings.WaitTime)
		return fmt.Errorf("%w: auction %s is busy", domain.ErrConcurrencyTimeout, auctionID)
	}

	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			l.log.Error("Failed to release lock", "key", key, "error", err)
		}
	}()

	return fn()
}
