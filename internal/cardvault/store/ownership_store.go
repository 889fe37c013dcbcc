package store

import "context"

// OwnershipStore is the source of truth mapping users to the cards they may
// access. Read-only from this subsystem's perspective.
type OwnershipStore interface {
	OwnsCard(ctx context.Context, userID, cardID string) (bool, error)
	CardsOwnedBy(ctx context.Context, userID string) ([]string, error)
}
