package binance

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"futbot/pkg/logger"
)

const maxReadAttempts = 4

// retryRead runs an idempotent read with bounded exponential backoff.
// Only reads go through here; order submission is excluded by design
// because a market order in an unknown state must not be resent.
func retryRead(ctx context.Context, what string, fn func() error) error {
	b := &backoff.Backoff{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for attempt := 1; attempt <= maxReadAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxReadAttempts {
			break
		}
		wait := b.Duration()
		logger.Warn("exchange read failed, retrying",
			zap.String("read", what),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
