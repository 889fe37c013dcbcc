package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jlrojas/cardvault/internal/cardvault/store"
)

// OwnershipStore resolves card ownership from the card_owners table.
// Read-only: rows are maintained by an external provisioning process (or the
// dev seeder).
type OwnershipStore struct {
	db *sql.DB
}

func NewOwnershipStore(db *sql.DB) *OwnershipStore {
	return &OwnershipStore{db: db}
}

func (s *OwnershipStore) OwnsCard(ctx context.Context, userID, cardID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM card_owners WHERE user_id = ? AND card_id = ?;`,
		userID, cardID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("OwnsCard query: %w", err)
	}
	return true, nil
}

func (s *OwnershipStore) CardsOwnedBy(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT card_id FROM card_owners WHERE user_id = ? ORDER BY card_id;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("CardsOwnedBy query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var cardID string
		if err := rows.Scan(&cardID); err != nil {
			return nil, fmt.Errorf("scan card_id: %w", err)
		}
		out = append(out, cardID)
	}
	return out, rows.Err()
}

var _ store.OwnershipStore = (*OwnershipStore)(nil)
