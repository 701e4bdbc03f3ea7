package worker

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner is the single operation the worker drives.
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Cleanup periodically removes expired verification codes. The scheduling
// lives here, outside the auth core; the core only exposes the idempotent
// operation, so running two workers at once is safe.
type Cleanup struct {
	cleaner  Cleaner
	logger   *slog.Logger
	interval time.Duration
}

func NewCleanup(cleaner Cleaner, logger *slog.Logger, interval time.Duration) *Cleanup {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Cleanup{cleaner: cleaner, logger: logger, interval: interval}
}

// Run blocks, firing one cleanup pass per tick until the context is
// cancelled. A failed pass is logged and retried on the next tick, never
// sooner, so a struggling store is not hammered.
func (c *Cleanup) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("cleanup worker started", "interval", c.interval)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			if _, err := c.cleaner.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("cleanup pass failed", "err", err)
			}
		}
	}
}
