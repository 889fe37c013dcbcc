package memory

import (
	"context"
	"sync"

	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

// PayloadStore holds full card payloads keyed by cardID. It stands in for
// the external sensitive-data source in tests and dev environments.
type PayloadStore struct {
	mu       sync.RWMutex
	payloads map[string]types.SecureCardPayload
}

func NewPayloadStore(payloads []types.SecureCardPayload) *PayloadStore {
	m := make(map[string]types.SecureCardPayload, len(payloads))
	for _, p := range payloads {
		if p.CardID != "" {
			m[p.CardID] = p
		}
	}
	return &PayloadStore{payloads: m}
}

func (s *PayloadStore) Get(_ context.Context, cardID string) (types.SecureCardPayload, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payloads[cardID]
	return p, ok, nil
}

// DemoPayloads is the development data set used by the dev server when no
// external payload source is wired in.
func DemoPayloads() []types.SecureCardPayload {
	return []types.SecureCardPayload{
		{CardID: "card-001", FullPAN: "4111111111111111", CVV: "123", Expiry: "12/25", Holder: "JORGE LUIS ROJAS"},
		{CardID: "card-002", FullPAN: "5555555555552222", CVV: "456", Expiry: "08/26", Holder: "JORGE LUIS ROJAS"},
		{CardID: "card-003", FullPAN: "3333333333333333", CVV: "789", Expiry: "03/27", Holder: "JORGE LUIS ROJAS"},
	}
}
