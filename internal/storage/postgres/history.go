package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tramline/merch-shop/internal/domain/checkout"
)

var _ checkout.History = (*HistoryRepository)(nil)

// receiptLineJSON is the JSONB form of a committed line.
type receiptLineJSON struct {
	MerchandiseID string          `json:"merchandise_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

// HistoryRepository implements checkout.History backed by PostgreSQL. Receipt
// lines are stored as JSONB: the order history is an immutable log, never
// queried per line.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository returns a HistoryRepository using the given pool.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Record persists a committed receipt.
func (r *HistoryRepository) Record(ctx context.Context, rec *checkout.Receipt) error {
	lines := make([]receiptLineJSON, len(rec.Lines))
	for i, l := range rec.Lines {
		lines[i] = receiptLineJSON{
			MerchandiseID: l.MerchandiseID,
			Name:          l.Name,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
		}
	}
	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return errors.Wrap(err, "marshal receipt lines")
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO order_history (id, user_id, lines, total, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.OrderID, rec.UserID, linesJSON, rec.Total, rec.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "record receipt %s", rec.OrderID)
	}
	return nil
}
