package lingokeeper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hazyhaar/lingokeeper/lingokeeper/internal/store"
	"github.com/hazyhaar/lingokeeper/manifest"
	"github.com/hazyhaar/lingokeeper/scanner"
)

// Sync scans the mods tree, creates a snapshot, and appends one history
// record per changed or newly-seen mod. Exactly one sync runs at a time: a
// concurrent call fails immediately with ErrSyncInProgress.
//
// Scan-level per-file errors are non-fatal; they are carried in the result's
// Details. Only storage failures abort the flow.
func (k *Keeper) Sync(ctx context.Context, message string) (*Result, error) {
	if !k.syncing.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer k.syncing.Store(false)

	if !k.config.AllowEmptyMessage && strings.TrimSpace(message) == "" {
		return &Result{OK: false, Message: "a snapshot message is required"}, nil
	}

	known, err := k.store.KnownHashes(ctx)
	if err != nil {
		return nil, err
	}

	scan, err := scanner.Scan(ctx, k.config.ModsRoot, known)
	if err != nil {
		return nil, err
	}
	k.logger.Info("scan complete",
		"changed", len(scan.Changed), "new", len(scan.New),
		"unchanged", scan.Unchanged, "errors", len(scan.Errors))

	affected := make([]scanner.Mod, 0, len(scan.Changed)+len(scan.New))
	affected = append(affected, scan.Changed...)
	affected = append(affected, scan.New...)

	snapshotID, err := k.store.CreateSnapshot(ctx, message, len(affected))
	if err != nil {
		return nil, err
	}

	mods := make([]*store.TrackedMod, 0, len(affected))
	records := make([]*store.HistoryRecord, 0, len(affected))
	var details []string

	for _, m := range affected {
		prev, err := k.store.GetMod(ctx, m.UniqueID)
		if err != nil {
			return nil, err
		}
		mod := projectMod(prev, m)
		mods = append(mods, mod)

		content, err := json.Marshal(recordContent(mod))
		if err != nil {
			details = append(details, fmt.Sprintf("%s: serialize: %v", m.UniqueID, err))
			continue
		}
		records = append(records, &store.HistoryRecord{
			SnapshotID:   snapshotID,
			ModUniqueID:  m.UniqueID,
			Content:      string(content),
			PreviousHash: m.PreviousHash,
		})
	}

	if err := k.store.SaveRecords(ctx, records); err != nil {
		return nil, err
	}
	if err := k.store.UpsertMods(ctx, mods); err != nil {
		return nil, err
	}

	for _, e := range scan.Errors {
		details = append(details, fmt.Sprintf("%s: %s", e.Path, e.Err))
	}

	k.logger.Info("sync complete", "snapshot", snapshotID, "mods", len(affected))
	k.store.LogEvent(ctx, store.Event{
		EventType: "sync", EntityType: "snapshot",
		EntityID: fmt.Sprint(snapshotID), Action: "create",
		Success: len(details) == 0,
	})

	return &Result{
		OK:      true,
		Count:   len(affected),
		Message: fmt.Sprintf("snapshot %d created, %d mods recorded", snapshotID, len(affected)),
		Details: details,
	}, nil
}

// projectMod folds a scan hit into the tracked-state row. A field whose
// on-disk value already reads as simplified Chinese is treated as the
// translated value, so last-known originals survive in-place translations.
func projectMod(prev *store.TrackedMod, m scanner.Mod) *store.TrackedMod {
	mod := &store.TrackedMod{UniqueID: m.UniqueID}
	if prev != nil {
		*mod = *prev
	}
	mod.ContentHash = m.Hash
	mod.RelativePath = m.RelativePath
	mod.UpdatedAt = 0 // stamped by the store
	if m.NexusID != "" {
		mod.NexusID = m.NexusID
	}

	if manifest.DetectScript(m.Name).Simplified {
		mod.TranslatedName = m.Name
	} else if m.Name != "" {
		mod.Name = m.Name
	}
	if manifest.DetectScript(m.Description).Simplified {
		mod.TranslatedDescription = m.Description
	} else if m.Description != "" {
		mod.Description = m.Description
	}
	return mod
}

func recordContent(mod *store.TrackedMod) RecordContent {
	return RecordContent{
		UniqueID:              mod.UniqueID,
		Name:                  mod.Name,
		Description:           mod.Description,
		TranslatedName:        mod.TranslatedName,
		TranslatedDescription: mod.TranslatedDescription,
		NexusID:               mod.NexusID,
		Hash:                  mod.ContentHash,
		RelativePath:          mod.RelativePath,
	}
}
