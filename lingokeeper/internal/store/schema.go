package store

// Schema contains the complete DDL for the lingokeeper tables.
const Schema = `
-- Tracked mods: current-state projection, one row per unique id.
-- Rows are upserted by sync and rollback, never deleted here.
CREATE TABLE IF NOT EXISTS tracked_mods (
    unique_id              TEXT PRIMARY KEY,
    name                   TEXT NOT NULL DEFAULT '',
    description            TEXT NOT NULL DEFAULT '',
    translated_name        TEXT NOT NULL DEFAULT '',
    translated_description TEXT NOT NULL DEFAULT '',
    content_hash           TEXT NOT NULL DEFAULT '',
    relative_path          TEXT NOT NULL DEFAULT '',
    nexus_id               TEXT NOT NULL DEFAULT '',
    machine_translated     INTEGER NOT NULL DEFAULT 0,
    updated_at             INTEGER NOT NULL
);

-- Snapshots: immutable checkpoints, ids monotonic (AUTOINCREMENT so ids of
-- pruned snapshots are never reused and id order stays chronological).
CREATE TABLE IF NOT EXISTS snapshots (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    message    TEXT NOT NULL,
    mod_count  INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

-- History records: one per (mod, snapshot) where tracked fields changed.
CREATE TABLE IF NOT EXISTS history_records (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    snapshot_id   INTEGER NOT NULL,
    mod_unique_id TEXT NOT NULL,
    content       TEXT NOT NULL,
    previous_hash TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_history_snapshot ON history_records(snapshot_id);
CREATE INDEX IF NOT EXISTS idx_history_mod ON history_records(mod_unique_id, id);

-- Diff cache: precomputed diff lists keyed by version-control commit id.
-- format_version travels with the payload so schema skew reads as a miss.
CREATE TABLE IF NOT EXISTS diff_cache (
    commit_id      TEXT PRIMARY KEY,
    payload        TEXT NOT NULL,
    diff_count     INTEGER NOT NULL DEFAULT 0,
    format_version INTEGER NOT NULL,
    created_at     INTEGER NOT NULL
);

-- Business events: best-effort operational log of sync/restore/rollback.
CREATE TABLE IF NOT EXISTS event_logs (
    event_id    TEXT PRIMARY KEY,
    event_type  TEXT NOT NULL,
    entity_type TEXT NOT NULL DEFAULT '',
    entity_id   TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL DEFAULT '',
    details     TEXT NOT NULL DEFAULT '',
    success     INTEGER NOT NULL DEFAULT 1,
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created ON event_logs(created_at);
`
