// Package periodic runs the handler's background ticks: eviction of
// stale bosses, persistence flush, and perceptual-hash backfill for
// bosses still missing one. Each tick is grounded on the teacher's
// "start a ticker, loop until ctx is done" background-job idiom
// (cmd/server/main.go's OAuth cleanup job), generalized to accept a
// context for graceful shutdown instead of running forever.
package periodic

import (
	"context"
	"log/slog"
	"time"

	"github.com/walfie-raid/petronel/internal/imagehash"
	"github.com/walfie-raid/petronel/internal/model"
	"github.com/walfie-raid/petronel/internal/persistence"
	"github.com/walfie-raid/petronel/internal/raidhandler"
)

// RunCleanup evicts bosses not seen within ttl and resyncs the
// subscription-count metric, once per interval, until ctx is done
// (§4.5.6).
func RunCleanup(ctx context.Context, raids *raidhandler.Handler, interval, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-ttl)
			raids.Retain(func(entry *raidhandler.BossEntry) bool {
				return entry.Boss.LastSeenAt.Load().After(cutoff)
			})
			raids.SyncMetrics()
			logger.Info("[PERIODIC] cleanup tick completed")
		}
	}
}

// RunImageHashBackfill scans the live boss list once per interval and
// enqueues a hash request for every boss with an image but no hash
// yet (Boss.NeedsImageHashUpdate), then applies every worker result it
// receives to the handler via UpdateImageHash. It runs until ctx is
// done.
func RunImageHashBackfill(ctx context.Context, raids *raidhandler.Handler, worker *imagehash.Worker, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, entry := range raids.Bosses() {
				if !entry.Boss.NeedsImageHashUpdate() {
					continue
				}
				url := entry.Boss.Image.Canonical().String()
				name := entry.Boss.Name.Canonical().String()
				worker.Request(name, url)
			}
		case result, ok := <-worker.Results():
			if !ok {
				return
			}
			if result.Err != nil {
				logger.Warn("[PERIODIC] image hash fetch failed", "boss", result.BossName, "error", result.Err)
				continue
			}
			if raids.UpdateImageHash(result.BossName, result.Hash) {
				logger.Info("[PERIODIC] image hash updated", "boss", result.BossName)
			}
		}
	}
}

// RunPersistenceFlush writes the current boss list to store once per
// interval, until ctx is done. A write failure is logged, never
// fatal: the next tick retries against the then-current boss list
// (§7's "persistence I/O failure... next flush tick retries").
func RunPersistenceFlush(ctx context.Context, raids *raidhandler.Handler, store persistence.Store, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot := raids.Bosses()
			toSave := make([]model.Boss, len(snapshot))
			for i, entry := range snapshot {
				toSave[i] = *entry.Boss
			}

			if err := store.SaveBosses(ctx, toSave); err != nil {
				logger.Warn("[PERIODIC] persistence flush failed", "error", err)
				continue
			}
			logger.Info("[PERIODIC] persistence flush completed", "bosses", len(snapshot))
		}
	}
}
