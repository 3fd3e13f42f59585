package lingokeeper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/lingokeeper/lingokeeper/internal/store"
	"github.com/hazyhaar/lingokeeper/manifest"
	"github.com/hazyhaar/lingokeeper/scanner"
)

// Restore writes every tracked mod's translated fields back into its
// on-disk manifest via the patch engine. One failing file is recorded and
// the flow moves on; the result carries success and failure counts.
func (k *Keeper) Restore(ctx context.Context) (*Result, error) {
	mods, err := k.store.ListMods(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{OK: true}
	var updated []*store.TrackedMod

	for _, mod := range mods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if mod.TranslatedName == "" && mod.TranslatedDescription == "" {
			continue
		}

		newHash, err := k.restoreOne(mod)
		if err != nil {
			res.Failed++
			res.Details = append(res.Details, fmt.Sprintf("%s: %v", mod.UniqueID, err))
			k.logger.Warn("restore failed", "mod", mod.UniqueID, "error", err)
			continue
		}
		res.Count++
		if newHash != mod.ContentHash {
			mod.ContentHash = newHash
			mod.UpdatedAt = 0
			updated = append(updated, mod)
		}
	}

	if err := k.store.UpsertMods(ctx, updated); err != nil {
		return nil, err
	}

	res.OK = res.Failed == 0
	res.Message = fmt.Sprintf("%d manifests restored, %d failed", res.Count, res.Failed)
	k.store.LogEvent(ctx, store.Event{
		EventType: "restore", EntityType: "mod",
		Action: "write_manifests", Success: res.OK,
	})
	return res, nil
}

// restoreOne patches one manifest on disk and returns the new content hash.
func (k *Keeper) restoreOne(mod *store.TrackedMod) (string, error) {
	path, err := findManifest(joinRoot(k.config.ModsRoot, mod.RelativePath))
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	text := string(data)

	if mod.TranslatedName != "" {
		text = manifest.ReplaceField(text, "Name", mod.TranslatedName)
	}
	if mod.TranslatedDescription != "" {
		text = manifest.ReplaceField(text, "Description", mod.TranslatedDescription)
	}
	if mod.NexusID != "" {
		text = manifest.UpsertListKey(text, "UpdateKeys", "Nexus", mod.NexusID)
	}

	if text == string(data) {
		return mod.ContentHash, nil
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	return scanner.HashContent(manifest.StripBOM(text)), nil
}

// Rollback resets tracked state to the carried-forward state at the target
// snapshot, then runs Restore to materialise the files. Mods present in
// history but no longer tracked are skipped, not resurrected. Rollback does
// not prune: discarding the now-diverged "future" history is the caller's
// separate decision via PruneAfter.
func (k *Keeper) Rollback(ctx context.Context, targetID int64) (*Result, error) {
	if _, err := k.store.GetSnapshot(ctx, targetID); err != nil {
		return nil, err
	}

	records, err := k.store.StateAtSnapshot(ctx, targetID)
	if err != nil {
		return nil, err
	}

	res := &Result{OK: true}
	var mods []*store.TrackedMod

	for _, r := range records {
		mod, err := k.store.GetMod(ctx, r.ModUniqueID)
		if err != nil {
			return nil, err
		}
		if mod == nil {
			res.Skipped++
			k.logger.Warn("rollback: mod no longer tracked, skipping", "mod", r.ModUniqueID)
			continue
		}
		applyRecord(mod, r.Content)
		mods = append(mods, mod)
	}

	if err := k.store.UpsertMods(ctx, mods); err != nil {
		return nil, err
	}
	res.Count = len(mods)

	restored, err := k.Restore(ctx)
	if err != nil {
		return nil, err
	}
	res.OK = restored.OK
	res.Failed = restored.Failed
	res.Details = restored.Details
	res.Message = fmt.Sprintf("rolled back %d mods to snapshot %d (%d skipped), %d manifests written",
		res.Count, targetID, res.Skipped, restored.Count)

	k.logger.Info("rollback complete", "snapshot", targetID,
		"mods", res.Count, "skipped", res.Skipped)
	k.store.LogEvent(ctx, store.Event{
		EventType: "rollback", EntityType: "snapshot",
		EntityID: fmt.Sprint(targetID), Action: "restore_state",
		Success: res.OK,
	})
	return res, nil
}

// applyRecord overwrites the tracked row from a history record's content
// blob. A malformed blob is swallowed: the translated fields are left unset
// rather than aborting the whole rollback.
func applyRecord(mod *store.TrackedMod, content string) {
	var rc RecordContent
	if err := json.Unmarshal([]byte(content), &rc); err != nil {
		mod.TranslatedName = ""
		mod.TranslatedDescription = ""
		mod.UpdatedAt = 0
		return
	}
	mod.Name = rc.Name
	mod.Description = rc.Description
	mod.TranslatedName = rc.TranslatedName
	mod.TranslatedDescription = rc.TranslatedDescription
	mod.ContentHash = rc.Hash
	if rc.NexusID != "" {
		mod.NexusID = rc.NexusID
	}
	if rc.RelativePath != "" {
		mod.RelativePath = rc.RelativePath
	}
	mod.UpdatedAt = 0
}

// joinRoot resolves a stored slash-separated relative path under root.
func joinRoot(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}

// findManifest locates the manifest file in dir, tolerating any casing.
func findManifest(dir string) (string, error) {
	direct := filepath.Join(dir, "manifest.json")
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), "manifest.json") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no manifest in %s", dir)
}
