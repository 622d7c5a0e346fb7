package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/prepsych/copilot/internal/store"
)

// StartSweeper runs a background goroutine that periodically removes
// session state idle for longer than ttl. Without it the per-session maps
// grow for the life of the process. A ttl <= 0 disables sweeping.
func StartSweeper(ctx context.Context, repo store.Repository, ttl, interval time.Duration) {
	if ttl <= 0 {
		slog.Info("Session sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				removed, err := repo.PurgeIdleSessions(ctx, ttl)
				if err != nil {
					slog.Error("Session sweeper failed to purge", "error", err)
					continue
				}
				if removed > 0 {
					slog.Info("Session sweeper removed idle sessions", "count", removed)
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
