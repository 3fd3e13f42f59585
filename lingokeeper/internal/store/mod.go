package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/lingokeeper/dbopen"
)

// TrackedMod is the current-state projection of one mod.
type TrackedMod struct {
	UniqueID              string `json:"unique_id"`
	Name                  string `json:"name,omitempty"`
	Description           string `json:"description,omitempty"`
	TranslatedName        string `json:"translated_name,omitempty"`
	TranslatedDescription string `json:"translated_description,omitempty"`
	ContentHash           string `json:"content_hash"`
	RelativePath          string `json:"relative_path"`
	NexusID               string `json:"nexus_id,omitempty"`
	MachineTranslated     bool   `json:"machine_translated,omitempty"`
	UpdatedAt             int64  `json:"updated_at"`
}

const modColumns = `unique_id, name, description, translated_name,
	translated_description, content_hash, relative_path, nexus_id, machine_translated, updated_at`

// UpsertMods writes the batch in one transaction. Upsert semantics mean a
// retried or partially-applied sync converges instead of corrupting state.
func (s *Store) UpsertMods(ctx context.Context, mods []*TrackedMod) error {
	if len(mods) == 0 {
		return nil
	}
	now := time.Now().Unix()

	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tracked_mods (`+modColumns+`)
			VALUES (?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(unique_id) DO UPDATE SET
			    name                   = excluded.name,
			    description            = excluded.description,
			    translated_name        = excluded.translated_name,
			    translated_description = excluded.translated_description,
			    content_hash           = excluded.content_hash,
			    relative_path          = excluded.relative_path,
			    nexus_id               = excluded.nexus_id,
			    machine_translated     = excluded.machine_translated,
			    updated_at             = excluded.updated_at`)
		if err != nil {
			return fmt.Errorf("store: prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, m := range mods {
			if m.UpdatedAt == 0 {
				m.UpdatedAt = now
			}
			if _, err := stmt.ExecContext(ctx,
				m.UniqueID, m.Name, m.Description, m.TranslatedName,
				m.TranslatedDescription, m.ContentHash, m.RelativePath,
				m.NexusID, boolInt(m.MachineTranslated), m.UpdatedAt,
			); err != nil {
				return fmt.Errorf("store: upsert mod %s: %w", m.UniqueID, err)
			}
		}
		return nil
	})
}

// GetMod returns one tracked mod, or nil when it is not tracked.
func (s *Store) GetMod(ctx context.Context, uniqueID string) (*TrackedMod, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+modColumns+` FROM tracked_mods WHERE unique_id = ?`, uniqueID)
	m, err := scanMod(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get mod %s: %w", uniqueID, err)
	}
	return m, nil
}

// ListMods returns all tracked mods ordered by unique id.
func (s *Store) ListMods(ctx context.Context) ([]*TrackedMod, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+modColumns+` FROM tracked_mods ORDER BY unique_id`)
	if err != nil {
		return nil, fmt.Errorf("store: list mods: %w", err)
	}
	defer rows.Close()

	var mods []*TrackedMod
	for rows.Next() {
		m, err := scanMod(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: scan mod: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// KnownHashes returns unique id -> last content hash for every tracked mod,
// the shape the scanner consumes.
func (s *Store) KnownHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT unique_id, content_hash FROM tracked_mods`)
	if err != nil {
		return nil, fmt.Errorf("store: known hashes: %w", err)
	}
	defer rows.Close()

	known := make(map[string]string)
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("store: scan hash: %w", err)
		}
		known[id] = hash
	}
	return known, rows.Err()
}

func scanMod(scan func(...any) error) (*TrackedMod, error) {
	m := &TrackedMod{}
	var machine int
	err := scan(&m.UniqueID, &m.Name, &m.Description, &m.TranslatedName,
		&m.TranslatedDescription, &m.ContentHash, &m.RelativePath,
		&m.NexusID, &machine, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.MachineTranslated = machine == 1
	return m, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
