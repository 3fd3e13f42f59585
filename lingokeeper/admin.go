package lingokeeper

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/lingokeeper/lingokeeper/internal/store"
)

// Router returns the HTTP admin API. It is a thin JSON skin over the keeper:
// every route maps to one orchestrated flow or one history query, and the
// single-flight rejection surfaces as 409.
func (k *Keeper) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshots", k.handleSnapshots)
		r.Get("/mods", k.handleMods)
		r.Get("/history/{uid}", k.handleHistory)
		r.Get("/state/{id}", k.handleState)
		r.Get("/changes/{id}", k.handleChanges)
		r.Post("/sync", k.handleSync)
		r.Post("/restore", k.handleRestore)
		r.Post("/rollback/{id}", k.handleRollback)
		r.Post("/prune/{id}", k.handlePrune)
	})
	return r
}

func (k *Keeper) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := k.Snapshots(r.Context())
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, snaps)
}

func (k *Keeper) handleMods(w http.ResponseWriter, r *http.Request) {
	mods, err := k.Mods(r.Context())
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, mods)
}

func (k *Keeper) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := k.HistoryForMod(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (k *Keeper) handleState(w http.ResponseWriter, r *http.Request) {
	id, ok := snapshotID(w, r)
	if !ok {
		return
	}
	records, err := k.StateAt(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func (k *Keeper) handleChanges(w http.ResponseWriter, r *http.Request) {
	id, ok := snapshotID(w, r)
	if !ok {
		return
	}
	records, err := k.ChangesAt(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

// SyncRequest is the body for POST /api/v1/sync.
type SyncRequest struct {
	Message string `json:"message"`
}

func (k *Keeper) handleSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	res, err := k.Sync(r.Context(), req.Message)
	if errors.Is(err, ErrSyncInProgress) {
		http.Error(w, "Sync already in progress", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

func (k *Keeper) handleRestore(w http.ResponseWriter, r *http.Request) {
	res, err := k.Restore(r.Context())
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

func (k *Keeper) handleRollback(w http.ResponseWriter, r *http.Request) {
	id, ok := snapshotID(w, r)
	if !ok {
		return
	}
	res, err := k.Rollback(r.Context(), id)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		http.Error(w, "Snapshot not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

func (k *Keeper) handlePrune(w http.ResponseWriter, r *http.Request) {
	id, ok := snapshotID(w, r)
	if !ok {
		return
	}
	n, err := k.PruneAfter(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int64{"snapshots_removed": n})
}

func snapshotID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid snapshot id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
