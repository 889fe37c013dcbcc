package memory

import (
	"context"
	"strings"
	"sync"
)

// OwnershipStore maps userID -> set of owned cardIDs.
type OwnershipStore struct {
	mu    sync.RWMutex
	cards map[string]map[string]struct{}
}

// NewOwnershipStore builds a store from a userID -> cardIDs mapping.
// Blank IDs are dropped.
func NewOwnershipStore(userCards map[string][]string) *OwnershipStore {
	m := make(map[string]map[string]struct{}, len(userCards))
	for userID, cardIDs := range userCards {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		set := make(map[string]struct{}, len(cardIDs))
		for _, c := range cardIDs {
			c = strings.TrimSpace(c)
			if c != "" {
				set[c] = struct{}{}
			}
		}
		m[userID] = set
	}
	return &OwnershipStore{cards: m}
}

func (s *OwnershipStore) OwnsCard(_ context.Context, userID, cardID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.cards[userID]
	if !ok {
		return false, nil
	}
	_, ok = set[cardID]
	return ok, nil
}

func (s *OwnershipStore) CardsOwnedBy(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.cards[userID]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out, nil
}
