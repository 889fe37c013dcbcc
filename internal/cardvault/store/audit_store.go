package store

import (
	"context"
	"time"

	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

// AuditStore persists security events as an append-only audit log.
//
// Append assigns the event's ID and Timestamp; whatever the caller put in
// those fields is discarded. Query methods never mutate the log.
type AuditStore interface {
	Append(ctx context.Context, ev types.SecurityEvent) error

	// RecentEvents returns at most limit events, most recent first.
	RecentEvents(ctx context.Context, limit int) ([]types.SecurityEvent, error)

	// EventsByType returns all events of the given type, oldest first.
	EventsByType(ctx context.Context, et types.EventType) ([]types.SecurityEvent, error)

	// HighRiskEvents returns all events with risk level HIGH, oldest first.
	HighRiskEvents(ctx context.Context) ([]types.SecurityEvent, error)
}

// AuditRetentionStore is implemented by audit stores that support trimming
// history older than a cutoff. The background pruner drives it.
type AuditRetentionStore interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
