package tasks

import (
	"context"
	"log/slog"
	"time"
)

type NotificationCleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupReadNotifications deletes read notifications older than retention.
func CleanupReadNotifications(ctx context.Context, svc NotificationCleaner, retention time.Duration, logger *slog.Logger) {
	removed, err := svc.Cleanup(ctx, retention)
	if err != nil {
		logger.Error("failed to delete old notifications", "error", err)
		return
	}
	logger.Info("deleted read notifications", "count", removed, "older_than", retention)
}
