package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event is a domain-level operation to record in the event log.
type Event struct {
	EventType  string
	EntityType string
	EntityID   string
	Action     string
	Details    string // optional JSON
	Success    bool
}

// LogEvent records a business event. Non-blocking: errors are logged via
// slog but never propagate, so a failing event log never blocks a flow.
func (s *Store) LogEvent(ctx context.Context, e Event) {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO event_logs
		    (event_id, event_type, entity_type, entity_id, action, details, success, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		uuid.NewString(), e.EventType, e.EntityType, e.EntityID,
		e.Action, e.Details, boolInt(e.Success), time.Now().Unix())
	if err != nil {
		slog.Error("event log failed", "error", err, "event_type", e.EventType)
	}
}

// PruneEventsOlderThan deletes event rows older than days, for retention.
func (s *Store) PruneEventsOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM event_logs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
