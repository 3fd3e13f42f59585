package lingokeeper

import (
	"context"
	"fmt"

	"github.com/hazyhaar/lingokeeper/lingokeeper/internal/store"
	"github.com/hazyhaar/lingokeeper/manifest"
)

// TranslateMissing asks the translation collaborator for translated values
// for every tracked mod still missing them, and marks those mods as
// machine-translated. Fields whose original already contains Han script are
// left alone: they either are translated or never needed it. Per-mod
// translation failures are collected, the batch continues.
func (k *Keeper) TranslateMissing(ctx context.Context, tr Translator) (*Result, error) {
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

		changed := false
		if mod.TranslatedName == "" && mod.Name != "" && !manifest.DetectScript(mod.Name).Han {
			out, err := tr.Translate(ctx, mod.Name, k.config.Language)
			if err != nil {
				res.Failed++
				res.Details = append(res.Details, fmt.Sprintf("%s: name: %v", mod.UniqueID, err))
			} else if out != "" {
				mod.TranslatedName = out
				changed = true
			}
		}
		if mod.TranslatedDescription == "" && mod.Description != "" && !manifest.DetectScript(mod.Description).Han {
			out, err := tr.Translate(ctx, mod.Description, k.config.Language)
			if err != nil {
				res.Failed++
				res.Details = append(res.Details, fmt.Sprintf("%s: description: %v", mod.UniqueID, err))
			} else if out != "" {
				mod.TranslatedDescription = out
				changed = true
			}
		}

		if changed {
			mod.MachineTranslated = true
			mod.UpdatedAt = 0
			updated = append(updated, mod)
			res.Count++
		}
	}

	if err := k.store.UpsertMods(ctx, updated); err != nil {
		return nil, err
	}

	res.OK = res.Failed == 0
	res.Message = fmt.Sprintf("%d mods translated, %d failures", res.Count, res.Failed)
	k.store.LogEvent(ctx, store.Event{
		EventType: "translate", EntityType: "mod",
		Action: "fill_missing", Success: res.OK,
	})
	return res, nil
}
