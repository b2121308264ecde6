package products

import "context"

// Product is a static catalog entry. Prices are in the same integer units
// as card balances.
type Product struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type Products interface {
	List(ctx context.Context) ([]Product, error)
}
