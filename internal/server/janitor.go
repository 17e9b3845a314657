package server

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultPurgeInterval = 10 * time.Minute

// Purger deletes expired view states
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// runPurgeLoop purges once right away, then on every tick until ctx is done
func runPurgeLoop(ctx context.Context, purger Purger, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPurgeInterval
	}

	purgeOnce(ctx, purger, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("View-state janitor stopped")
			return
		case <-ticker.C:
			purgeOnce(ctx, purger, logger)
		}
	}
}

func purgeOnce(ctx context.Context, purger Purger, logger *zap.Logger) {
	start := time.Now()
	removed, err := purger.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Failed to purge expired view states", zap.Error(err))
		}
		return
	}
	if removed > 0 {
		logger.Info("Purged expired view states",
			zap.Int64("removed", removed),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
