package cards

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrCardNotFound = errors.New("card not found")

// Card is the stored account of one physical card.
type Card struct {
	UID       string    `json:"uid"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Cards interface {
	EnsureExists(ctx context.Context, tx *sql.Tx, uid string) error
	SetBalance(ctx context.Context, tx *sql.Tx, uid string, balance int64) error
	Get(ctx context.Context, uid string) (Card, error)
}
