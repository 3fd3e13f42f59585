// Package lingokeeper is the translation versioning engine for mod
// manifests. It coordinates the scan → diff → snapshot → persist flows and
// the restore/rollback flows over one SQLite database:
//
//	scanner → Keeper.Sync → history store
//	history store → Keeper.Rollback → patch engine → manifest files
//
// Key properties:
//   - Non-destructive edits: manifests are patched in place, every byte
//     outside the target field value survives (see package manifest)
//   - Append-only history: snapshots are immutable, state at any snapshot
//     is derived by carry-forward, pruning is the only deletion
//   - Single-flight sync: a second sync is rejected, never queued
//
// Usage:
//
//	k, err := lingokeeper.New(cfg, logger)
//	defer k.Close()
//	res, err := k.Sync(ctx, "translated the farming mods")
package lingokeeper

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/hazyhaar/lingokeeper/lingokeeper/internal/store"
)

// Keeper is the versioning orchestrator.
type Keeper struct {
	store   *store.Store
	logger  *slog.Logger
	config  *Config
	syncing atomic.Bool
}

// New creates a Keeper. It opens (or creates) the SQLite database and
// applies the schema.
func New(cfg *Config, logger *slog.Logger) (*Keeper, error) {
	cfg.defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	return &Keeper{
		store:  s,
		logger: logger,
		config: cfg,
	}, nil
}

// Close closes the underlying database.
func (k *Keeper) Close() error {
	return k.store.Close()
}

// Store returns the underlying store for direct access (testing, admin).
func (k *Keeper) Store() *store.Store {
	return k.store
}

// Snapshots lists all snapshots, newest first.
func (k *Keeper) Snapshots(ctx context.Context) ([]*store.Snapshot, error) {
	return k.store.ListSnapshots(ctx)
}

// HistoryForMod returns one mod's records, newest first, with snapshot
// metadata attached.
func (k *Keeper) HistoryForMod(ctx context.Context, uniqueID string) ([]*store.HistoryEntry, error) {
	return k.store.HistoryForMod(ctx, uniqueID)
}

// StateAt resolves every mod's carried-forward state as of a snapshot.
func (k *Keeper) StateAt(ctx context.Context, snapshotID int64) ([]*store.HistoryRecord, error) {
	return k.store.StateAtSnapshot(ctx, snapshotID)
}

// ChangesAt returns the records belonging to exactly one snapshot.
func (k *Keeper) ChangesAt(ctx context.Context, snapshotID int64) ([]*store.HistoryRecord, error) {
	return k.store.ChangesAtSnapshot(ctx, snapshotID)
}

// Mods lists the current tracked state of every mod.
func (k *Keeper) Mods(ctx context.Context) ([]*store.TrackedMod, error) {
	return k.store.ListMods(ctx)
}

// PruneAfter discards every snapshot after keep, with its records. It is an
// explicit, separate operation: Rollback never prunes on its own, the caller
// decides whether a rollback is also a checkpoint reset.
func (k *Keeper) PruneAfter(ctx context.Context, keep int64) (int64, error) {
	n, err := k.store.PruneAfter(ctx, keep)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		k.logger.Info("pruned history", "after_snapshot", keep, "snapshots_removed", n)
	}
	k.store.LogEvent(ctx, store.Event{
		EventType: "prune", EntityType: "snapshot",
		Action: "prune_after", Success: true,
	})
	return n, nil
}

// Event rows are diagnostics, not history; they are dropped after this.
const eventRetentionDays = 90

// EvictDiffCache removes diff-cache entries older than days, and applies
// event-log retention as part of the same housekeeping pass.
func (k *Keeper) EvictDiffCache(ctx context.Context, days int) (int64, error) {
	n, err := k.store.EvictDiffsOlderThan(ctx, days)
	if err != nil {
		return 0, err
	}
	if _, err := k.store.PruneEventsOlderThan(ctx, eventRetentionDays); err != nil {
		k.logger.Warn("event log retention failed", "error", err)
	}
	return n, nil
}
