package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureExists creates the card with a zero balance unless it is already
// there. Existing rows are untouched.
func (r *cardsRepo) EnsureExists(ctx context.Context, tx *sql.Tx, uid string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cards (uid, balance)
		VALUES ($1, 0)
		ON CONFLICT (uid) DO NOTHING
	`, uid)
	if err != nil {
		return fmt.Errorf("ensure card: %w", err)
	}

	return nil
}
