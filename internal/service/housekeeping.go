package service

import (
	"context"
	"log/slog"
	"time"
)

// RunTokenHousekeeping purges long-expired ledger rows every interval until
// ctx is cancelled.
func RunTokenHousekeeping(ctx context.Context, ledger *VerificationLedger, interval time.Duration, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := ledger.Purge(ctx, retention); err != nil {
				slog.Error("token housekeeping failed", "error", err)
			}
		}
	}
}
