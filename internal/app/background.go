package app

import (
	"context"
	"time"

	"github.com/dtroode/sportify-server/internal/logger"
)

// Every runs job each interval until ctx is done. A non-positive interval
// disables the job. Job errors are logged and do not stop the loop.
func Every(ctx context.Context, interval time.Duration, name string, logger *logger.Logger, job func(ctx context.Context) error) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := job(ctx); err != nil {
				logger.Error("background job failed", "job", name, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// ReconcileJob repairs one-sided membership links.
func (a *App) ReconcileJob(ctx context.Context) error {
	_, err := a.Membership.Reconcile(ctx)
	return err
}

// PruneJob returns a job evicting cache rows not synced within ttl.
func (a *App) PruneJob(ttl time.Duration, logger *logger.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := a.Cached.Prune(ctx, time.Now().Add(-ttl))
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("cache pruned", "rows", n)
		}
		return nil
	}
}
