package transactions

import (
	"context"
	"database/sql"
	"time"
)

type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Record is one immutable row of the transaction log.
type Record struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Kind      string    `json:"type"`
	Amount    int64     `json:"amount"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates COMPLETED records: revenue sums PAY amounts, Count
// includes every kind.
type Stats struct {
	Revenue int64
	Count   int64
}

type Transactions interface {
	Insert(ctx context.Context, tx *sql.Tx, rec Record) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	ListByUID(ctx context.Context, uid string, limit int) ([]Record, error)
	Stats(ctx context.Context) (Stats, error)
}
