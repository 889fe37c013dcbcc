package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

// ErrSecureViewFailed is surfaced when the bridge reports failure without an
// error message of its own.
var ErrSecureViewFailed = errors.New("failed to show secure view")

// TokenSource issues a signed token for one user/card pair.
// *TokenIssuer is the production implementation.
type TokenSource interface {
	IssueToken(ctx context.Context, userID, cardID string) (types.SecureToken, error)
}

// ViewOpener runs the secure-view sequence for one card.
// *SecureViewBridge is the production implementation.
type ViewOpener interface {
	OpenSecureView(ctx context.Context, cardID, token string) (types.SecureViewResult, error)
}

// AccessOrchestrator drives the token-issuer -> bridge sequence for a single
// user session and tracks which card's flow is currently in flight.
//
// In-flight tracking uses a single "current card" slot: starting a flow for
// card B while card A is still pending immediately makes B the loading card,
// and A's eventual completion no longer changes observable state. A's work
// still runs to completion and still writes its audit events. A generation
// counter keeps a superseded flow from clearing the newer flow's slot.
type AccessOrchestrator struct {
	userID string
	issuer TokenSource
	bridge ViewOpener
	logger *zap.Logger

	mu          sync.Mutex
	gen         uint64
	loadingCard string
	lastErr     error
}

func NewAccessOrchestrator(userID string, issuer TokenSource, bridge ViewOpener, logger *zap.Logger) *AccessOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessOrchestrator{
		userID: strings.TrimSpace(userID),
		issuer: issuer,
		bridge: bridge,
		logger: logger,
	}
}

// ShowSecureCard runs the full secure-access flow for cardID. It never
// returns an error: every failure is recovered into Err. Callers that want
// fire-and-forget semantics run it in a goroutine and poll IsLoadingCard/Err.
func (o *AccessOrchestrator) ShowSecureCard(ctx context.Context, cardID string) {
	cardID = strings.TrimSpace(cardID)

	o.mu.Lock()
	o.gen++
	myGen := o.gen
	o.loadingCard = cardID
	o.lastErr = nil
	o.mu.Unlock()

	o.logger.Debug("secure card flow started", zap.String("card_id", cardID))
	o.finish(myGen, o.runFlow(ctx, cardID))
}

func (o *AccessOrchestrator) runFlow(ctx context.Context, cardID string) error {
	token, err := o.issuer.IssueToken(ctx, o.userID, cardID)
	if err != nil {
		return err
	}

	result, err := o.bridge.OpenSecureView(ctx, cardID, token.Token)
	if err != nil {
		return err
	}
	if !result.Success {
		if result.Error != "" {
			return errors.New(result.Error)
		}
		return ErrSecureViewFailed
	}
	return nil
}

// finish clears the in-flight slot and records the outcome, unless a newer
// flow has taken over the slot in the meantime.
func (o *AccessOrchestrator) finish(myGen uint64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gen != myGen {
		return
	}
	o.loadingCard = ""
	o.lastErr = err

	if err != nil {
		o.logger.Warn("secure card flow failed", zap.Error(err))
	}
}

// IsLoadingCard reports whether cardID is the card whose flow is currently
// in flight.
func (o *AccessOrchestrator) IsLoadingCard(cardID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loadingCard != "" && o.loadingCard == cardID
}

// Err returns the most recently surfaced flow error, or nil after a
// successful or not-yet-started flow.
func (o *AccessOrchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}
