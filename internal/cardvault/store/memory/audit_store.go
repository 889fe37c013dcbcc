package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jlrojas/cardvault/internal/cardvault/store"
	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

// AuditStore is an in-memory append-only log of security events, bounded to
// maxEvents (oldest entries fall off first). Intended for tests and dev
// environments.
type AuditStore struct {
	mu        sync.Mutex
	events    []types.SecurityEvent
	maxEvents int
}

// DefaultMaxEvents bounds the in-memory log when no cap is given.
const DefaultMaxEvents = 10000

func NewAuditStore() *AuditStore {
	return &AuditStore{maxEvents: DefaultMaxEvents}
}

// NewAuditStoreWithCap returns a store bounded to maxEvents entries.
// maxEvents <= 0 falls back to DefaultMaxEvents.
func NewAuditStoreWithCap(maxEvents int) *AuditStore {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &AuditStore{maxEvents: maxEvents}
}

func (s *AuditStore) Append(_ context.Context, ev types.SecurityEvent) error {
	ev.ID = uuid.NewString()
	ev.Timestamp = time.Now().UTC()
	ev.Metadata = ev.Metadata.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
	if over := len(s.events) - s.maxEvents; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
	return nil
}

func (s *AuditStore) RecentEvents(_ context.Context, limit int) ([]types.SecurityEvent, error) {
	if limit < 0 {
		limit = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := limit
	if n > len(s.events) {
		n = len(s.events)
	}
	out := make([]types.SecurityEvent, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

func (s *AuditStore) EventsByType(_ context.Context, et types.EventType) ([]types.SecurityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.SecurityEvent
	for _, ev := range s.events {
		if ev.EventType == et {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *AuditStore) HighRiskEvents(_ context.Context) ([]types.SecurityEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.SecurityEvent
	for _, ev := range s.events {
		if ev.RiskLevel == types.RiskHigh {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *AuditStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0:0]
	var deleted int64
	for _, ev := range s.events {
		if ev.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return deleted, nil
}

// Events returns a copy of all recorded events, oldest first. Test-only helper.
func (s *AuditStore) Events() []types.SecurityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SecurityEvent, len(s.events))
	copy(out, s.events)
	return out
}

var _ store.AuditStore = (*AuditStore)(nil)
var _ store.AuditRetentionStore = (*AuditStore)(nil)
