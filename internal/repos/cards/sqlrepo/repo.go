// Package sqlrepo implements cards.Cards on database/sql. The queries are
// shared by the postgres and sqlite drivers.
package sqlrepo

import (
	"database/sql"

	"github.com/fastprodman/rfidledger/internal/repos/cards"
)

var _ cards.Cards = (*cardsRepo)(nil)

type cardsRepo struct{ db *sql.DB }

func New(db *sql.DB) *cardsRepo {
	return &cardsRepo{db: db}
}
