package types

import "time"

// SecureToken is a short-lived credential bound to a single card. It is
// created by the token issuer, consumed once by the secure view bridge and
// never persisted.
type SecureToken struct {
	CardID    string    `json:"card_id"`
	Token     string    `json:"token"`
	Signature string    `json:"signature"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SecureCardPayload holds the full sensitive data for one card. It must
// never be logged, retained, or returned to the presentation layer; only the
// secure view bridge may hold it, and only for the span of one open call.
type SecureCardPayload struct {
	CardID  string
	FullPAN string
	CVV     string
	Expiry  string
	Holder  string
}

// ViewFailureReason classifies why a secure view did not open.
type ViewFailureReason string

const (
	ReasonValidationError ViewFailureReason = "VALIDATION_ERROR"
	ReasonUserDismiss     ViewFailureReason = "USER_DISMISS"
	ReasonTimeout         ViewFailureReason = "TIMEOUT"
)

// SecureViewResult is the only thing that crosses back to the caller of the
// secure view bridge. No sensitive data rides on it.
type SecureViewResult struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Reason  ViewFailureReason `json:"reason,omitempty"`
}

// ViewEvent is delivered to bridge listeners on secure-view lifecycle
// transitions.
type ViewEvent struct {
	Name   string `json:"name"`
	CardID string `json:"card_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Listener event names emitted by the secure view bridge.
const (
	EventSecureViewOpened = "SECURE_VIEW_OPENED"
	EventSecureViewError  = "SECURE_VIEW_ERROR"
)
