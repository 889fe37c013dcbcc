package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jlrojas/cardvault/internal/cardvault/store"
)

// OwnershipRegistry resolves which cards a user may access. Absence of
// evidence of ownership is denial: unknown users, unknown cards, blank IDs
// and store faults all resolve to false, never to an error.
type OwnershipRegistry struct {
	store  store.OwnershipStore
	logger *zap.Logger
}

func NewOwnershipRegistry(st store.OwnershipStore, logger *zap.Logger) *OwnershipRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OwnershipRegistry{store: st, logger: logger}
}

func (r *OwnershipRegistry) OwnsCard(ctx context.Context, userID, cardID string) bool {
	userID = strings.TrimSpace(userID)
	cardID = strings.TrimSpace(cardID)
	if userID == "" || cardID == "" {
		return false
	}

	owns, err := r.store.OwnsCard(ctx, userID, cardID)
	if err != nil {
		// Fail closed. The fault is logged, not surfaced.
		r.logger.Warn("ownership lookup failed",
			zap.String("user_id", userID),
			zap.String("card_id", cardID),
			zap.Error(err),
		)
		return false
	}
	return owns
}

func (r *OwnershipRegistry) CardsOwnedBy(ctx context.Context, userID string) []string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil
	}
	cards, err := r.store.CardsOwnedBy(ctx, userID)
	if err != nil {
		r.logger.Warn("ownership listing failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return cards
}
