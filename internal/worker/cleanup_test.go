package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingCleaner struct {
	calls atomic.Int64
}

func (c *countingCleaner) CleanupExpired(ctx context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestCleanup_RunsAndStops(t *testing.T) {
	cleaner := &countingCleaner{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewCleanup(cleaner, logger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return cleaner.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestNewCleanup_DefaultInterval(t *testing.T) {
	w := NewCleanup(&countingCleaner{}, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	assert.Equal(t, time.Hour, w.interval)
}
