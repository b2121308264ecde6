package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/rfidledger/internal/repos/products"
)

var _ products.Products = (*productsRepo)(nil)

type productsRepo struct{ db *sql.DB }

func New(db *sql.DB) *productsRepo {
	return &productsRepo{db: db}
}

func (r *productsRepo) List(ctx context.Context) ([]products.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]products.Product, 0)
	for rows.Next() {
		var p products.Product

		err = rows.Scan(&p.ID, &p.Name, &p.Price)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return out, nil
}
