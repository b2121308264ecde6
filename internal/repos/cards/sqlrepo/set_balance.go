package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/rfidledger/internal/repos/cards"
)

// SetBalance overwrites the stored balance with the device-reported value.
func (r *cardsRepo) SetBalance(ctx context.Context, tx *sql.Tx, uid string, balance int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET balance = $1, updated_at = CURRENT_TIMESTAMP
		WHERE uid = $2
	`, balance, uid)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return cards.ErrCardNotFound
	}

	return nil
}
