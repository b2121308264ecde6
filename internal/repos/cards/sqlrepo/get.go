package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/rfidledger/internal/repos/cards"
)

func (r *cardsRepo) Get(ctx context.Context, uid string) (cards.Card, error) {
	var c cards.Card

	err := r.db.QueryRowContext(ctx, `
		SELECT uid, balance, updated_at
		FROM cards
		WHERE uid = $1
	`, uid).Scan(&c.UID, &c.Balance, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cards.Card{}, cards.ErrCardNotFound
		}

		return cards.Card{}, fmt.Errorf("get card: %w", err)
	}

	return c, nil
}
