package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jlrojas/cardvault/internal/cardvault/secure"
	"github.com/jlrojas/cardvault/internal/cardvault/store"
	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

// ViewListener receives secure-view lifecycle events.
type ViewListener func(types.ViewEvent)

// Subscription identifies one registered listener. Removing a nil or
// already-removed subscription is a no-op.
type Subscription struct {
	event string
	id    uint64
}

// SecureViewBridge validates a secure-view request, acquires the sensitive
// payload, and hands both to the isolated viewer capability. The payload
// never leaves the span of one OpenSecureView call; only a SecureViewResult
// crosses back to the caller.
//
// The bridge does not trust a caller-supplied signature — it mints a fresh
// signed token bound to the card at invocation time.
type SecureViewBridge struct {
	payloads store.PayloadStore
	signer   secure.Signer
	viewer   secure.Viewer
	audit    store.AuditStore
	config   secure.ViewConfig
	logger   *zap.Logger

	mu        sync.Mutex
	nextSubID uint64
	listeners map[string]map[uint64]ViewListener
}

func NewSecureViewBridge(
	payloads store.PayloadStore,
	signer secure.Signer,
	viewer secure.Viewer,
	audit store.AuditStore,
	logger *zap.Logger,
) *SecureViewBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SecureViewBridge{
		payloads:  payloads,
		signer:    signer,
		viewer:    viewer,
		audit:     audit,
		config:    secure.DefaultViewConfig(),
		logger:    logger,
		listeners: make(map[string]map[uint64]ViewListener),
	}
}

// SetViewConfig overrides the display policy passed to the viewer.
func (b *SecureViewBridge) SetViewConfig(cfg secure.ViewConfig) {
	b.config = cfg
}

// OpenSecureView runs the full bridge sequence for one card. The returned
// error is reserved for audit-append faults; everything else is reported
// through the SecureViewResult.
func (b *SecureViewBridge) OpenSecureView(ctx context.Context, cardID, token string) (types.SecureViewResult, error) {
	payload, found, err := b.payloads.Get(ctx, cardID)
	if err != nil {
		return b.viewFailed(cardID, err.Error()), nil
	}
	if !found {
		return types.SecureViewResult{
			Success: false,
			Error:   "Card data not found",
			Reason:  types.ReasonValidationError,
		}, nil
	}

	if !ValidateToken(token) {
		return types.SecureViewResult{
			Success: false,
			Error:   "Invalid token",
			Reason:  types.ReasonValidationError,
		}, nil
	}

	signed, err := secure.CallSigner(ctx, b.signer, cardID)
	if err != nil {
		return b.viewFailed(cardID, err.Error()), nil
	}

	err = secure.CallViewer(ctx, b.viewer, secure.ViewRequest{
		CardID:    cardID,
		Token:     signed.Token,
		Signature: signed.Signature,
		Payload:   payload,
		Config:    b.config,
	})
	if err != nil {
		return b.viewFailed(cardID, err.Error()), nil
	}

	b.emit(types.ViewEvent{Name: types.EventSecureViewOpened, CardID: cardID})

	if err := b.audit.Append(ctx, types.SecurityEvent{
		EventType: types.EventDataAccessed,
		CardID:    cardID,
		RiskLevel: types.RiskMedium,
		Metadata:  types.Metadata{"channel": "secure_view"},
	}); err != nil {
		return types.SecureViewResult{}, fmt.Errorf("audit data access: %w", err)
	}

	b.logger.Info("secure view opened", zap.String("card_id", cardID))

	return types.SecureViewResult{Success: true}, nil
}

func (b *SecureViewBridge) viewFailed(cardID, message string) types.SecureViewResult {
	b.logger.Warn("secure view failed",
		zap.String("card_id", cardID),
		zap.String("error", message),
	)
	b.emit(types.ViewEvent{Name: types.EventSecureViewError, CardID: cardID, Error: message})
	return types.SecureViewResult{
		Success: false,
		Error:   message,
		Reason:  types.ReasonValidationError,
	}
}

// IsAvailable probes the viewer capability. Any fault — error or panic —
// degrades to false; nothing propagates.
func (b *SecureViewBridge) IsAvailable(ctx context.Context) (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()
	ok, err := b.viewer.Available(ctx)
	if err != nil {
		return false
	}
	return ok
}

// AddListener registers fn for the named event and returns its subscription
// handle. Multiple listeners per event are supported; delivery order is
// unspecified.
func (b *SecureViewBridge) AddListener(event string, fn ViewListener) *Subscription {
	if fn == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSubID++
	sub := &Subscription{event: event, id: b.nextSubID}
	if b.listeners[event] == nil {
		b.listeners[event] = make(map[uint64]ViewListener)
	}
	b.listeners[event][sub.id] = fn
	return sub
}

// RemoveListener unregisters a subscription. Nil or unknown subscriptions
// are ignored.
func (b *SecureViewBridge) RemoveListener(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.listeners[sub.event]; ok {
		delete(m, sub.id)
	}
}

func (b *SecureViewBridge) emit(ev types.ViewEvent) {
	b.mu.Lock()
	fns := make([]ViewListener, 0, len(b.listeners[ev.Name]))
	for _, fn := range b.listeners[ev.Name] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		b.safeNotify(fn, ev)
	}
}

// safeNotify isolates listener panics so one bad callback cannot starve the
// rest.
func (b *SecureViewBridge) safeNotify(fn ViewListener, ev types.ViewEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("view listener panicked",
				zap.String("event", ev.Name),
				zap.Any("panic", r),
			)
		}
	}()
	fn(ev)
}
