// Package store provides the SQLite persistence layer for lingokeeper:
// tracked mods, snapshots, history records, the diff cache, and the
// business event log, all in one database file.
package store

import (
	"database/sql"

	"github.com/hazyhaar/lingokeeper/dbopen"
)

// Store is the lingokeeper database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the lingokeeper SQLite database at path and
// applies the schema. Foreign keys stay on: PruneAfter relies on the
// cascade from snapshots to history_records.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
