package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/jlrojas/cardvault/internal/db"

	"github.com/jlrojas/cardvault/internal/cardvault/store"
	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

// AuditStore persists security events in the security_events table. Appends
// go through the serialized writer so concurrent flows cannot interleave or
// lose records; queries read directly.
type AuditStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAuditStore(db *sql.DB, writer *dbpkg.Worker) *AuditStore {
	return &AuditStore{db: db, writer: writer}
}

func (s *AuditStore) Append(ctx context.Context, ev types.SecurityEvent) error {
	// ID and timestamp are assigned here, never taken from the caller.
	id := uuid.NewString()
	createdMs := time.Now().UTC().UnixMilli()

	var metadata any
	if md := ev.Metadata.Normalize(); len(md) > 0 {
		b, err := json.Marshal(md)
		if err != nil {
			return fmt.Errorf("Append marshal metadata: %w", err)
		}
		metadata = string(b)
	}

	var cardID, userID any
	if ev.CardID != "" {
		cardID = ev.CardID
	}
	if ev.UserID != "" {
		userID = ev.UserID
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO security_events(
  id, event_type, card_id, user_id, risk_level, created_at_ms, metadata
) VALUES (?, ?, ?, ?, ?, ?, ?);
`,
			id, string(ev.EventType), cardID, userID, string(ev.RiskLevel), createdMs, metadata,
		); err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		return nil
	})
}

func (s *AuditStore) RecentEvents(ctx context.Context, limit int) ([]types.SecurityEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, event_type, card_id, user_id, risk_level, created_at_ms, metadata
FROM security_events
ORDER BY created_at_ms DESC, rowid DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentEvents query: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *AuditStore) EventsByType(ctx context.Context, et types.EventType) ([]types.SecurityEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, event_type, card_id, user_id, risk_level, created_at_ms, metadata
FROM security_events
WHERE event_type = ?
ORDER BY created_at_ms ASC, rowid ASC;`, string(et))
	if err != nil {
		return nil, fmt.Errorf("EventsByType query: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *AuditStore) HighRiskEvents(ctx context.Context) ([]types.SecurityEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, event_type, card_id, user_id, risk_level, created_at_ms, metadata
FROM security_events
WHERE risk_level = ?
ORDER BY created_at_ms ASC, rowid ASC;`, string(types.RiskHigh))
	if err != nil {
		return nil, fmt.Errorf("HighRiskEvents query: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *AuditStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM security_events WHERE created_at_ms < ?;`,
			cutoff.UTC().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("PruneOlderThan delete: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func scanEvents(rows *sql.Rows) ([]types.SecurityEvent, error) {
	var out []types.SecurityEvent
	for rows.Next() {
		var (
			ev        types.SecurityEvent
			cardID    sql.NullString
			userID    sql.NullString
			createdMs int64
			metadata  sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.EventType, &cardID, &userID, &ev.RiskLevel, &createdMs, &metadata); err != nil {
			return nil, fmt.Errorf("scan security_event: %w", err)
		}
		ev.CardID = cardID.String
		ev.UserID = userID.String
		ev.Timestamp = time.UnixMilli(createdMs).UTC()
		if metadata.Valid && metadata.String != "" {
			md := make(types.Metadata)
			if err := json.Unmarshal([]byte(metadata.String), &md); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", ev.ID, err)
			}
			ev.Metadata = md
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

var _ store.AuditStore = (*AuditStore)(nil)
var _ store.AuditRetentionStore = (*AuditStore)(nil)
