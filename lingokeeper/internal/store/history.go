package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/lingokeeper/dbopen"
)

// ErrSnapshotNotFound is returned when a snapshot id does not exist.
var ErrSnapshotNotFound = errors.New("store: snapshot not found")

// Snapshot is one immutable checkpoint created by a sync.
type Snapshot struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	ModCount  int    `json:"mod_count"`
	CreatedAt int64  `json:"created_at"`
}

// HistoryRecord is one mod's serialized field state at a specific snapshot.
type HistoryRecord struct {
	ID           int64  `json:"id"`
	SnapshotID   int64  `json:"snapshot_id"`
	ModUniqueID  string `json:"mod_unique_id"`
	Content      string `json:"content"`
	PreviousHash string `json:"previous_hash,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

// HistoryEntry is a record joined with its owning snapshot's metadata, for
// display. The join happens at the storage layer so callers get a fully
// populated value, never a lazily-loaded graph.
type HistoryEntry struct {
	HistoryRecord
	SnapshotMessage   string `json:"snapshot_message"`
	SnapshotCreatedAt int64  `json:"snapshot_created_at"`
}

// CreateSnapshot allocates the next snapshot id. Fails only on storage-layer
// I/O failure.
func (s *Store) CreateSnapshot(ctx context.Context, message string, modCount int) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO snapshots (message, mod_count, created_at) VALUES (?,?,?)`,
		message, modCount, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("store: create snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: snapshot id: %w", err)
	}
	return id, nil
}

// GetSnapshot returns one snapshot, or ErrSnapshotNotFound.
func (s *Store) GetSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	snap := &Snapshot{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, message, mod_count, created_at FROM snapshots WHERE id = ?`, id).
		Scan(&snap.ID, &snap.Message, &snap.ModCount, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get snapshot %d: %w", id, err)
	}
	return snap, nil
}

// SaveRecords bulk-appends history records in one transaction. Every record
// must already carry a valid snapshot id; the foreign key enforces it.
func (s *Store) SaveRecords(ctx context.Context, records []*HistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().Unix()

	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO history_records
			    (snapshot_id, mod_unique_id, content, previous_hash, created_at)
			VALUES (?,?,?,?,?)`)
		if err != nil {
			return fmt.Errorf("store: prepare record insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			if r.CreatedAt == 0 {
				r.CreatedAt = now
			}
			res, err := stmt.ExecContext(ctx,
				r.SnapshotID, r.ModUniqueID, r.Content, r.PreviousHash, r.CreatedAt)
			if err != nil {
				return fmt.Errorf("store: save record for %s: %w", r.ModUniqueID, err)
			}
			if r.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("store: record id: %w", err)
			}
		}
		return nil
	})
}

// ListSnapshots returns all snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context) ([]*Snapshot, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, message, mod_count, created_at FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.Message, &snap.ModCount, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// HistoryForMod returns every record for one mod, newest first, each joined
// with its snapshot's message and creation time.
func (s *Store) HistoryForMod(ctx context.Context, uniqueID string) ([]*HistoryEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT h.id, h.snapshot_id, h.mod_unique_id, h.content, h.previous_hash,
		       h.created_at, s.message, s.created_at
		FROM history_records h
		JOIN snapshots s ON s.id = h.snapshot_id
		WHERE h.mod_unique_id = ?
		ORDER BY h.id DESC`, uniqueID)
	if err != nil {
		return nil, fmt.Errorf("store: history for %s: %w", uniqueID, err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		e := &HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.SnapshotID, &e.ModUniqueID, &e.Content,
			&e.PreviousHash, &e.CreatedAt, &e.SnapshotMessage, &e.SnapshotCreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// StateAtSnapshot resolves the point-in-time state at target: for every mod
// with at least one record at or before target, exactly the record with the
// maximum id among those. The grouped max is pushed to SQLite; tie-break is
// id alone, since ids are monotonic and therefore chronological. This is the
// one query whose cost scales with total history size; idx_history_mod and
// idx_history_snapshot keep it indexed.
func (s *Store) StateAtSnapshot(ctx context.Context, target int64) ([]*HistoryRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT h.id, h.snapshot_id, h.mod_unique_id, h.content, h.previous_hash, h.created_at
		FROM history_records h
		JOIN (
		    SELECT mod_unique_id, MAX(id) AS max_id
		    FROM history_records
		    WHERE snapshot_id <= ?
		    GROUP BY mod_unique_id
		) latest ON h.id = latest.max_id
		ORDER BY h.mod_unique_id`, target)
	if err != nil {
		return nil, fmt.Errorf("store: state at snapshot %d: %w", target, err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ChangesAtSnapshot returns the records created in exactly this snapshot —
// "what changed in this checkpoint", as opposed to the carried-forward state.
func (s *Store) ChangesAtSnapshot(ctx context.Context, target int64) ([]*HistoryRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, snapshot_id, mod_unique_id, content, previous_hash, created_at
		FROM history_records
		WHERE snapshot_id = ?
		ORDER BY id`, target)
	if err != nil {
		return nil, fmt.Errorf("store: changes at snapshot %d: %w", target, err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// PruneAfter deletes every snapshot with id strictly greater than keep, and
// every history record belonging to those snapshots (FK cascade). Idempotent:
// nothing to prune is a no-op. Returns the number of snapshots removed.
func (s *Store) PruneAfter(ctx context.Context, keep int64) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM snapshots WHERE id > ?`, keep)
	if err != nil {
		return 0, fmt.Errorf("store: prune after %d: %w", keep, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: prune count: %w", err)
	}
	return n, nil
}

func collectRecords(rows *sql.Rows) ([]*HistoryRecord, error) {
	var records []*HistoryRecord
	for rows.Next() {
		r := &HistoryRecord{}
		if err := rows.Scan(&r.ID, &r.SnapshotID, &r.ModUniqueID, &r.Content,
			&r.PreviousHash, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
