package store

import (
	"context"

	"github.com/jlrojas/cardvault/internal/cardvault/types"
)

// PayloadStore resolves a card's full sensitive data. Read-only; the second
// return value reports whether the card exists at all.
type PayloadStore interface {
	Get(ctx context.Context, cardID string) (types.SecureCardPayload, bool, error)
}
