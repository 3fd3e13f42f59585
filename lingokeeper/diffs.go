package lingokeeper

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/hazyhaar/lingokeeper/diff"
	"github.com/hazyhaar/lingokeeper/manifest"
)

// Diffs returns, per tracked mod, the unified diff between its manifest as
// of the collaborator's current commit and its manifest on disk. Results
// are cached per commit id; a cache hit skips all file retrieval. The cache
// is strictly an accelerator: a failed cache write is logged and swallowed,
// and a stale-format entry reads as a miss.
func (k *Keeper) Diffs(ctx context.Context, vcs CommitProvider) (diff.List, bool, error) {
	commit, err := vcs.Head(ctx)
	if err != nil {
		return diff.List{}, false, fmt.Errorf("lingokeeper: commit identity: %w", err)
	}

	if cached, err := k.store.GetDiffs(ctx, commit, diff.FormatVersion); err != nil {
		return diff.List{}, false, err
	} else if cached != nil {
		l, err := diff.Decode(cached.Payload)
		if err == nil {
			k.logger.Debug("diff cache hit", "commit", commit, "diffs", cached.DiffCount)
			return l, true, nil
		}
		k.logger.Warn("diff cache payload undecodable, recomputing", "commit", commit, "error", err)
	}

	mods, err := k.store.ListMods(ctx)
	if err != nil {
		return diff.List{}, false, err
	}

	var list diff.List
	for _, mod := range mods {
		if err := ctx.Err(); err != nil {
			return diff.List{}, false, err
		}
		relFile := path.Join(mod.RelativePath, "manifest.json")

		old, err := vcs.FileAt(ctx, commit, relFile)
		if err != nil {
			k.logger.Warn("diff: no historical content", "mod", mod.UniqueID, "error", err)
			continue
		}
		current, err := k.currentManifest(mod.RelativePath)
		if err != nil {
			k.logger.Warn("diff: no current content", "mod", mod.UniqueID, "error", err)
			continue
		}
		if old == current {
			continue
		}

		patch, oversize := diff.Unified(relFile, old, current, diff.Options{MaxBytes: 1 << 20})
		list.Entries = append(list.Entries, diff.Entry{
			ModUniqueID: mod.UniqueID,
			Path:        relFile,
			Patch:       patch,
			Oversize:    oversize,
		})
	}

	if payload, err := diff.Encode(list); err != nil {
		k.logger.Warn("diff cache encode failed", "error", err)
	} else if err := k.store.PutDiffs(ctx, commit, payload, len(list.Entries), diff.FormatVersion); err != nil {
		k.logger.Warn("diff cache write failed", "commit", commit, "error", err)
	} else if n, err := k.store.EvictDiffsOlderThan(ctx, k.config.Cache.EvictDays); err != nil {
		k.logger.Warn("diff cache eviction failed", "error", err)
	} else if n > 0 {
		k.logger.Debug("evicted stale diff cache entries", "count", n)
	}

	return list, false, nil
}

func (k *Keeper) currentManifest(relDir string) (string, error) {
	p, err := findManifest(joinRoot(k.config.ModsRoot, relDir))
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return manifest.StripBOM(string(data)), nil
}
