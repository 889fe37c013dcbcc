package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type SeedDevOptions struct {
	// UserCards maps userID -> cardIDs to pre-create ownership rows in dev.
	UserCards map[string][]string
}

// SeedDev populates ownership data for local development. Idempotent:
// existing rows are left alone.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	userCards := opt.UserCards
	if len(userCards) == 0 {
		// Minimal starter data set matching the dev payload store.
		userCards = map[string][]string{
			"user-001": {"card-001", "card-002"},
			"user-002": {"card-003"},
		}
	}

	for userID, cardIDs := range userCards {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		for _, cardID := range cardIDs {
			cardID = strings.TrimSpace(cardID)
			if cardID == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO card_owners(user_id, card_id, created_at_ms)
VALUES (?, ?, ?);`, userID, cardID, now); err != nil {
				return fmt.Errorf("seed card_owners %s/%s: %w", userID, cardID, err)
			}
		}
	}

	return nil
}
