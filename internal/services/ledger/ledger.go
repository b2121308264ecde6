package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/rfidledger/internal/infra/sqlutil"
	"github.com/fastprodman/rfidledger/internal/intents"
	"github.com/fastprodman/rfidledger/internal/repos/cards"
	sqlcards "github.com/fastprodman/rfidledger/internal/repos/cards/sqlrepo"
	"github.com/fastprodman/rfidledger/internal/repos/products"
	sqlproducts "github.com/fastprodman/rfidledger/internal/repos/products/sqlrepo"
	"github.com/fastprodman/rfidledger/internal/repos/transactions"
	sqltransactions "github.com/fastprodman/rfidledger/internal/repos/transactions/sqlrepo"
)

// RecentLimit caps the transaction history returned to the dashboard.
const RecentLimit = 50

type LedgerService struct {
	db       *sql.DB
	cards    cards.Cards
	txns     transactions.Transactions
	products products.Products
}

func New(dbx *sql.DB) *LedgerService {
	return &LedgerService{
		db:       dbx,
		cards:    sqlcards.New(dbx),
		txns:     sqltransactions.New(dbx),
		products: sqlproducts.New(dbx),
	}
}

// ApplyIntent commits a confirmed intent in a single DB transaction:
//
// 1) Ensure the card row exists (zero balance if new).
// 2) Set its balance to the device-reported value.
// 3) Append a COMPLETED transaction record.
//
// Any failure rolls back all three, so the balance and the log never
// disagree. It returns the new record's id.
func (s *LedgerService) ApplyIntent(ctx context.Context, in intents.Intent, reportedBalance int64) (int64, error) {
	var id int64

	err := sqlutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := s.cards.EnsureExists(ctx, tx, in.UID)
		if err != nil {
			return fmt.Errorf("ensure card: %w", err)
		}

		err = s.cards.SetBalance(ctx, tx, in.UID, reportedBalance)
		if err != nil {
			return fmt.Errorf("set balance: %w", err)
		}

		id, err = s.txns.Insert(ctx, tx, transactions.Record{
			UID:    in.UID,
			Kind:   string(in.Kind),
			Amount: in.Amount,
			Status: transactions.StatusCompleted,
		})
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("apply intent: %w", err)
	}

	return id, nil
}

// SyncBalance records a device-reported balance with no ledger entry.
func (s *LedgerService) SyncBalance(ctx context.Context, uid string, reportedBalance int64) error {
	err := sqlutil.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := s.cards.EnsureExists(ctx, tx, uid)
		if err != nil {
			return fmt.Errorf("ensure card: %w", err)
		}

		err = s.cards.SetBalance(ctx, tx, uid, reportedBalance)
		if err != nil {
			return fmt.Errorf("set balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("sync balance: %w", err)
	}

	return nil
}

// GetCard returns the stored account for uid (cards.ErrCardNotFound if unseen).
func (s *LedgerService) GetCard(ctx context.Context, uid string) (cards.Card, error) {
	c, err := s.cards.Get(ctx, uid)
	if err != nil {
		return cards.Card{}, fmt.Errorf("get card: %w", err)
	}

	return c, nil
}

func (s *LedgerService) RecentTransactions(ctx context.Context) ([]transactions.Record, error) {
	recs, err := s.txns.ListRecent(ctx, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}

	return recs, nil
}

func (s *LedgerService) CardTransactions(ctx context.Context, uid string) ([]transactions.Record, error) {
	recs, err := s.txns.ListByUID(ctx, uid, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("card transactions: %w", err)
	}

	return recs, nil
}

func (s *LedgerService) Stats(ctx context.Context) (transactions.Stats, error) {
	st, err := s.txns.Stats(ctx)
	if err != nil {
		return transactions.Stats{}, fmt.Errorf("stats: %w", err)
	}

	return st, nil
}

func (s *LedgerService) Products(ctx context.Context) ([]products.Product, error) {
	ps, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("products: %w", err)
	}

	return ps, nil
}
