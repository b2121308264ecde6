package sqlrepo

import (
	"testing"

	"github.com/fastprodman/rfidledger/internal/infra/dbtest"
	"github.com/fastprodman/rfidledger/internal/repos/products"
)

func TestProducts_List_SeededCatalog(t *testing.T) {
	t.Parallel()

	want := []products.Product{
		{ID: 1, Name: "Coffee", Price: 3},
		{ID: 2, Name: "Sandwich", Price: 5},
		{ID: 3, Name: "Juice", Price: 2},
	}

	for _, backend := range dbtest.Backends() {
		t.Run(backend.Name, func(t *testing.T) {
			t.Parallel()

			got, err := New(backend.Open(t)).List(t.Context())
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("want %d products, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("product %d: want %+v, got %+v", i, want[i], got[i])
				}
			}
		})
	}
}
