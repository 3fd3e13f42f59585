package store

import (
	"context"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lingokeeper/dbopen"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return &Store{DB: dbopen.OpenMemory(t, dbopen.WithSchema(Schema))}
}

func mustSnapshot(t *testing.T, s *Store, msg string, count int) int64 {
	t.Helper()
	id, err := s.CreateSnapshot(context.Background(), msg, count)
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}
	return id
}

func mustRecords(t *testing.T, s *Store, records ...*HistoryRecord) {
	t.Helper()
	if err := s.SaveRecords(context.Background(), records); err != nil {
		t.Fatalf("save records: %v", err)
	}
}

func TestSnapshotIDsMonotonic(t *testing.T) {
	s := testStore(t)
	first := mustSnapshot(t, s, "first", 1)
	second := mustSnapshot(t, s, "second", 2)
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	mustSnapshot(t, s, "first", 0)
	mustSnapshot(t, s, "second", 0)

	snaps, err := s.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if snaps[0].Message != "second" || snaps[1].Message != "first" {
		t.Fatalf("order wrong: %s, %s", snaps[0].Message, snaps[1].Message)
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetSnapshot(context.Background(), 99); err != ErrSnapshotNotFound {
		t.Fatalf("err = %v, want ErrSnapshotNotFound", err)
	}
}

func TestSaveRecordsRequiresSnapshot(t *testing.T) {
	s := testStore(t)
	err := s.SaveRecords(context.Background(), []*HistoryRecord{
		{SnapshotID: 42, ModUniqueID: "a.mod", Content: "{}"},
	})
	if err == nil {
		t.Fatal("expected foreign key violation for missing snapshot")
	}
}

func TestHistoryForModJoinsSnapshot(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s1 := mustSnapshot(t, s, "initial import", 1)
	s2 := mustSnapshot(t, s, "second pass", 1)
	mustRecords(t, s,
		&HistoryRecord{SnapshotID: s1, ModUniqueID: "a.mod", Content: `{"v":1}`},
		&HistoryRecord{SnapshotID: s2, ModUniqueID: "a.mod", Content: `{"v":2}`},
		&HistoryRecord{SnapshotID: s2, ModUniqueID: "b.mod", Content: `{"v":1}`},
	)

	entries, err := s.HistoryForMod(ctx, "a.mod")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Content != `{"v":2}` {
		t.Errorf("newest first violated: %s", entries[0].Content)
	}
	if entries[0].SnapshotMessage != "second pass" {
		t.Errorf("snapshot message = %q, want second pass", entries[0].SnapshotMessage)
	}
	if entries[1].SnapshotMessage != "initial import" {
		t.Errorf("snapshot message = %q, want initial import", entries[1].SnapshotMessage)
	}
}

func TestStateAtSnapshotCarryForward(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s1 := mustSnapshot(t, s, "one", 1)
	s2 := mustSnapshot(t, s, "two", 1)
	s3 := mustSnapshot(t, s, "three", 1)
	mustRecords(t, s,
		&HistoryRecord{SnapshotID: s1, ModUniqueID: "m", Content: "v1"},
		&HistoryRecord{SnapshotID: s2, ModUniqueID: "m", Content: "v2"},
		&HistoryRecord{SnapshotID: s3, ModUniqueID: "other", Content: "x1"},
	)

	stateOf := func(target int64) map[string]string {
		t.Helper()
		recs, err := s.StateAtSnapshot(ctx, target)
		if err != nil {
			t.Fatalf("state at %d: %v", target, err)
		}
		got := make(map[string]string, len(recs))
		for _, r := range recs {
			got[r.ModUniqueID] = r.Content
		}
		return got
	}

	if st := stateOf(s1); st["m"] != "v1" || len(st) != 1 {
		t.Errorf("state(1) = %v, want m:v1 only", st)
	}
	if st := stateOf(s2); st["m"] != "v2" || len(st) != 1 {
		t.Errorf("state(2) = %v, want m:v2 only", st)
	}
	// Snapshot 3 has no record for m: carry-forward of v2, plus other.
	if st := stateOf(s3); st["m"] != "v2" || st["other"] != "x1" {
		t.Errorf("state(3) = %v, want m:v2 and other:x1", st)
	}
}

func TestChangesAtSnapshot(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s1 := mustSnapshot(t, s, "one", 1)
	s2 := mustSnapshot(t, s, "two", 1)
	mustRecords(t, s,
		&HistoryRecord{SnapshotID: s1, ModUniqueID: "m", Content: "v1"},
		&HistoryRecord{SnapshotID: s2, ModUniqueID: "m", Content: "v2"},
	)

	recs, err := s.ChangesAtSnapshot(ctx, s2)
	if err != nil {
		t.Fatalf("changes: %v", err)
	}
	if len(recs) != 1 || recs[0].Content != "v2" {
		t.Fatalf("changes(2) = %+v, want exactly v2", recs)
	}
}

func TestPruneAfterScope(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s1 := mustSnapshot(t, s, "one", 1)
	s2 := mustSnapshot(t, s, "two", 1)
	s3 := mustSnapshot(t, s, "three", 1)
	mustRecords(t, s,
		&HistoryRecord{SnapshotID: s1, ModUniqueID: "m", Content: "v1"},
		&HistoryRecord{SnapshotID: s2, ModUniqueID: "m", Content: "v2"},
		&HistoryRecord{SnapshotID: s3, ModUniqueID: "m", Content: "v3"},
	)

	n, err := s.PruneAfter(ctx, s1)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("pruned %d snapshots, want 2", n)
	}

	snaps, err := s.ListSnapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].ID != s1 {
		t.Fatalf("remaining snapshots = %+v, want only %d", snaps, s1)
	}

	// Records of pruned snapshots cascade away; snapshot 1's survive.
	entries, err := s.HistoryForMod(ctx, "m")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Content != "v1" {
		t.Fatalf("records after prune = %+v, want only v1", entries)
	}

	// Pruning with nothing left to prune is a no-op, not an error.
	n, err = s.PruneAfter(ctx, s1)
	if err != nil {
		t.Fatalf("idempotent prune: %v", err)
	}
	if n != 0 {
		t.Fatalf("second prune removed %d, want 0", n)
	}
}

func TestUpsertAndGetMod(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mod := &TrackedMod{
		UniqueID:       "a.mod",
		Name:           "A",
		TranslatedName: "甲",
		ContentHash:    "h1",
		RelativePath:   "ModA",
	}
	if err := s.UpsertMods(ctx, []*TrackedMod{mod}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.GetMod(ctx, "a.mod")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.TranslatedName != "甲" || got.ContentHash != "h1" {
		t.Fatalf("got %+v", got)
	}

	// Second upsert converges, it does not duplicate.
	mod.ContentHash = "h2"
	mod.MachineTranslated = true
	if err := s.UpsertMods(ctx, []*TrackedMod{mod}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	mods, err := s.ListMods(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 1 || mods[0].ContentHash != "h2" || !mods[0].MachineTranslated {
		t.Fatalf("after second upsert: %+v", mods)
	}

	known, err := s.KnownHashes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if known["a.mod"] != "h2" {
		t.Fatalf("known hashes = %v", known)
	}
}

func TestGetModMissing(t *testing.T) {
	s := testStore(t)
	got, err := s.GetMod(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestDiffCacheRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.PutDiffs(ctx, "abc123", `[{"f":"x"}]`, 1, 2); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetDiffs(ctx, "abc123", 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Payload != `[{"f":"x"}]` || got.DiffCount != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestDiffCacheMissOnAbsent(t *testing.T) {
	s := testStore(t)
	got, err := s.GetDiffs(context.Background(), "nope", 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want miss", got)
	}
}

func TestDiffCacheMissOnVersionSkew(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.PutDiffs(ctx, "abc123", "old payload", 3, 1); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.GetDiffs(ctx, "abc123", 2)
	if err != nil {
		t.Fatalf("version skew must be a miss, not an error: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want miss", got)
	}
}

func TestDiffCacheUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.PutDiffs(ctx, "abc123", "v1", 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.PutDiffs(ctx, "abc123", "v2", 2, 2); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDiffs(ctx, "abc123", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Payload != "v2" || got.DiffCount != 2 {
		t.Fatalf("got %+v, want upserted v2", got)
	}
}

func TestEvictDiffsOlderThan(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.PutDiffs(ctx, "old", "p", 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.PutDiffs(ctx, "new", "p", 1, 2); err != nil {
		t.Fatal(err)
	}
	// Age one entry past the cutoff by hand.
	if _, err := s.DB.Exec(`UPDATE diff_cache SET created_at = created_at - 40*86400 WHERE commit_id = 'old'`); err != nil {
		t.Fatal(err)
	}

	n, err := s.EvictDiffsOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("evict: %v", err)
	}
	if n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if got, _ := s.GetDiffs(ctx, "new", 2); got == nil {
		t.Fatal("fresh entry evicted")
	}
}

func TestLogEvent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.LogEvent(ctx, Event{EventType: "sync", EntityType: "snapshot", EntityID: "1", Action: "create", Success: true})

	var n int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM event_logs`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("event rows = %d, want 1", n)
	}
}

func TestPruneEventsOlderThan(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.LogEvent(ctx, Event{EventType: "sync", Action: "create", Success: true})
	s.LogEvent(ctx, Event{EventType: "restore", Action: "write_manifests", Success: true})
	if _, err := s.DB.Exec(`UPDATE event_logs SET created_at = created_at - 100*86400 WHERE event_type = 'sync'`); err != nil {
		t.Fatal(err)
	}

	n, err := s.PruneEventsOlderThan(ctx, 90)
	if err != nil {
		t.Fatalf("prune events: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
}
