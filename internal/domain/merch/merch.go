package merch

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested merchandise item does not exist.
var ErrNotFound = errors.New("merchandise not found")

// ErrInsufficientStock is returned by AdjustStock when a negative delta would
// take the stock level below zero. The adjustment is not applied.
var ErrInsufficientStock = errors.New("insufficient stock")

// Merchandise is a catalog item sold by the shop. Stock and Sold are owned by
// the catalog; the cart never mutates them directly.
type Merchandise struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Stock     int
	Sold      int
	Active    bool
}

// Catalog is the external source of truth for merchandise price and stock.
//
// AdjustStock applies delta to the item's stock level. A negative delta is a
// sale and additionally increments the sold counter. Implementations must be
// conditional: stock never goes below zero, and a shortfall returns
// ErrInsufficientStock without mutating anything.
type Catalog interface {
	List(ctx context.Context) ([]Merchandise, error)
	Lookup(ctx context.Context, id string) (*Merchandise, error)
	AdjustStock(ctx context.Context, id string, delta int) error
}
