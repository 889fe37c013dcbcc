package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/jlrojas/cardvault/internal/cardvault/secure"
	"github.com/jlrojas/cardvault/internal/cardvault/service"
	"github.com/jlrojas/cardvault/internal/cardvault/store"
	"github.com/jlrojas/cardvault/internal/cardvault/store/memory"
	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

// stubSigner is a controllable signing capability.
type stubSigner struct {
	err      error
	panicVal any
	ttl      time.Duration
}

func (s *stubSigner) Sign(_ context.Context, cardID string) (secure.SignedToken, error) {
	if s.panicVal != nil {
		panic(s.panicVal)
	}
	if s.err != nil {
		return secure.SignedToken{}, s.err
	}
	ttl := s.ttl
	if ttl <= 0 {
		ttl = time.Minute
	}
	return secure.SignedToken{
		Token:     "tok-" + cardID,
		Signature: "sig-" + cardID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}, nil
}

// stubViewer is a controllable secure viewer capability. If block is
// non-nil, Open waits on it before returning, which lets tests hold a flow
// in its pending state.
type stubViewer struct {
	openErr    error
	panicVal   any
	availErr   error
	available  bool
	block      chan struct{}
	openedWith []secure.ViewRequest
}

func (v *stubViewer) Open(_ context.Context, req secure.ViewRequest) error {
	if v.block != nil {
		<-v.block
	}
	if v.panicVal != nil {
		panic(v.panicVal)
	}
	if v.openErr != nil {
		return v.openErr
	}
	v.openedWith = append(v.openedWith, req)
	return nil
}

func (v *stubViewer) Available(_ context.Context) (bool, error) {
	if v.availErr != nil {
		return false, v.availErr
	}
	return v.available, nil
}

// failingAuditStore rejects every append; queries delegate to an empty
// memory store.
type failingAuditStore struct {
	*memory.AuditStore
}

func newFailingAuditStore() *failingAuditStore {
	return &failingAuditStore{AuditStore: memory.NewAuditStore()}
}

func (s *failingAuditStore) Append(context.Context, types.SecurityEvent) error {
	return errors.New("audit store unavailable")
}

// brokenOwnershipStore fails every lookup.
type brokenOwnershipStore struct{}

func (brokenOwnershipStore) OwnsCard(context.Context, string, string) (bool, error) {
	return false, errors.New("ownership backend down")
}

func (brokenOwnershipStore) CardsOwnedBy(context.Context, string) ([]string, error) {
	return nil, errors.New("ownership backend down")
}

// newTestIssuer builds a TokenIssuer backed by in-memory stores, returning
// the issuer and the audit store so tests can inspect recorded events.
func newTestIssuer(userCards map[string][]string, signer secure.Signer, audit store.AuditStore) (*service.TokenIssuer, *memory.AuditStore) {
	var events *memory.AuditStore
	if audit == nil {
		events = memory.NewAuditStore()
		audit = events
	} else {
		events, _ = audit.(*memory.AuditStore)
	}
	registry := service.NewOwnershipRegistry(memory.NewOwnershipStore(userCards), nil)
	return service.NewTokenIssuer(registry, signer, audit, nil), events
}

// newTestBridge wires a SecureViewBridge over memory stores and the given
// capability stubs.
func newTestBridge(payloads []types.SecureCardPayload, signer secure.Signer, viewer secure.Viewer) (*service.SecureViewBridge, *memory.AuditStore) {
	events := memory.NewAuditStore()
	bridge := service.NewSecureViewBridge(memory.NewPayloadStore(payloads), signer, viewer, events, nil)
	return bridge, events
}

func memoryOwnership(userCards map[string][]string) *memory.OwnershipStore {
	return memory.NewOwnershipStore(userCards)
}

func demoCards() map[string][]string {
	return map[string][]string{
		"u1": {"c1", "c2"},
	}
}

func demoPayload(cardID string) types.SecureCardPayload {
	return types.SecureCardPayload{
		CardID:  cardID,
		FullPAN: "4111111111111234",
		CVV:     "123",
		Expiry:  "12/25",
		Holder:  "JORGE LUIS ROJAS",
	}
}
