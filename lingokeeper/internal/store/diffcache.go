package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CachedDiffs is one diff-cache row as stored.
type CachedDiffs struct {
	CommitID      string `json:"commit_id"`
	Payload       string `json:"payload"`
	DiffCount     int    `json:"diff_count"`
	FormatVersion int    `json:"format_version"`
	CreatedAt     int64  `json:"created_at"`
}

// GetDiffs returns the cached payload for commitID when one exists with the
// expected format version. Both an absent row and a version mismatch are
// silent misses (nil, nil): the caller always falls back to recomputation,
// which lets the payload schema evolve without a migration step.
func (s *Store) GetDiffs(ctx context.Context, commitID string, formatVersion int) (*CachedDiffs, error) {
	c := &CachedDiffs{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT commit_id, payload, diff_count, format_version, created_at
		FROM diff_cache WHERE commit_id = ?`, commitID).
		Scan(&c.CommitID, &c.Payload, &c.DiffCount, &c.FormatVersion, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get diffs %s: %w", commitID, err)
	}
	if c.FormatVersion != formatVersion {
		return nil, nil
	}
	return c, nil
}

// PutDiffs upserts the payload for commitID, stamping the given format
// version and the current time.
func (s *Store) PutDiffs(ctx context.Context, commitID, payload string, diffCount, formatVersion int) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO diff_cache (commit_id, payload, diff_count, format_version, created_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(commit_id) DO UPDATE SET
		    payload        = excluded.payload,
		    diff_count     = excluded.diff_count,
		    format_version = excluded.format_version,
		    created_at     = excluded.created_at`,
		commitID, payload, diffCount, formatVersion, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store: put diffs %s: %w", commitID, err)
	}
	return nil
}

// EvictDiffsOlderThan deletes cache entries created more than days ago and
// returns the number removed.
func (s *Store) EvictDiffsOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM diff_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: evict diffs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: evict count: %w", err)
	}
	return n, nil
}
