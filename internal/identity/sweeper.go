package identity

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/careersim/internal/store"
)

// StartSweeper runs a background goroutine that periodically deletes
// sessions older than ttl. It does nothing when ttl or interval is not positive.
func StartSweeper(ctx context.Context, repo store.Repository, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		slog.Info("Session sweeper disabled", "ttl", ttl)
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepExpiredSessions(ctx, repo, ttl)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepExpiredSessions(ctx context.Context, repo store.Repository, ttl time.Duration) {
	deleted, err := repo.DeleteExpiredSessions(ctx, ttl)
	if err != nil {
		slog.Error("Session sweeper failed to delete expired sessions", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Session sweeper removed expired sessions", "count", deleted)
	}
}
