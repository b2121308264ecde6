// Package sqlrepo implements transactions.Transactions on database/sql.
package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/rfidledger/internal/repos/transactions"
)

var _ transactions.Transactions = (*transactionsRepo)(nil)

type transactionsRepo struct{ db *sql.DB }

func New(db *sql.DB) *transactionsRepo {
	return &transactionsRepo{db: db}
}

// Insert appends rec and returns the id the database assigned.
func (r *transactionsRepo) Insert(ctx context.Context, tx *sql.Tx, rec transactions.Record) (int64, error) {
	var id int64

	err := tx.QueryRowContext(ctx, `
		INSERT INTO transactions (uid, kind, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, rec.UID, rec.Kind, rec.Amount, string(rec.Status)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	return id, nil
}

func (r *transactionsRepo) ListRecent(ctx context.Context, limit int) ([]transactions.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, uid, kind, amount, status, created_at
		FROM transactions
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return scanRecords(rows)
}

func (r *transactionsRepo) ListByUID(ctx context.Context, uid string, limit int) ([]transactions.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, uid, kind, amount, status, created_at
		FROM transactions
		WHERE uid = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", uid, err)
	}

	return scanRecords(rows)
}

func (r *transactionsRepo) Stats(ctx context.Context) (transactions.Stats, error) {
	var s transactions.Stats

	err := r.db.QueryRowContext(ctx, `
		SELECT
			CAST(COALESCE(SUM(CASE WHEN kind = 'PAY' THEN amount ELSE 0 END), 0) AS BIGINT),
			COUNT(*)
		FROM transactions
		WHERE status = 'COMPLETED'
	`).Scan(&s.Revenue, &s.Count)
	if err != nil {
		return transactions.Stats{}, fmt.Errorf("transaction stats: %w", err)
	}

	return s, nil
}

func scanRecords(rows *sql.Rows) ([]transactions.Record, error) {
	defer rows.Close()

	out := make([]transactions.Record, 0)
	for rows.Next() {
		var (
			rec    transactions.Record
			status string
		)

		err := rows.Scan(&rec.ID, &rec.UID, &rec.Kind, &rec.Amount, &status, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		rec.Status = transactions.Status(status)
		out = append(out, rec)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}
