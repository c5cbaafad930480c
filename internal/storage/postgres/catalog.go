package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tramline/merch-shop/internal/domain/merch"
)

var _ merch.Catalog = (*CatalogRepository)(nil)

// CatalogRepository implements merch.Catalog backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository using the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns the full catalog ordered by id.
func (r *CatalogRepository) List(ctx context.Context) ([]merch.Merchandise, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, unit_price, stock, sold, active FROM merchandise ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list merchandise")
	}
	defer rows.Close()

	var items []merch.Merchandise
	for rows.Next() {
		var m merch.Merchandise
		if err := rows.Scan(&m.ID, &m.Name, &m.UnitPrice, &m.Stock, &m.Sold, &m.Active); err != nil {
			return nil, errors.Wrap(err, "scan merchandise")
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate merchandise")
	}
	return items, nil
}

// Lookup returns a single item by id, or merch.ErrNotFound.
func (r *CatalogRepository) Lookup(ctx context.Context, id string) (*merch.Merchandise, error) {
	var m merch.Merchandise
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, unit_price, stock, sold, active FROM merchandise WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.UnitPrice, &m.Stock, &m.Sold, &m.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, merch.ErrNotFound
		}
		return nil, errors.Wrapf(err, "lookup merchandise %s", id)
	}
	return &m, nil
}

// AdjustStock applies delta to the item's stock level in a single conditional
// UPDATE, so stock can never be driven below zero even under concurrent
// sales. A negative delta also increments the sold counter.
func (r *CatalogRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE merchandise
		 SET stock = stock + $2,
		     sold  = sold + GREATEST(-$2, 0)
		 WHERE id = $1 AND stock + $2 >= 0`,
		id, delta)
	if err != nil {
		return errors.Wrapf(err, "adjust stock for %s", id)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a shortfall.
		if _, lookupErr := r.Lookup(ctx, id); lookupErr != nil {
			return lookupErr
		}
		return merch.ErrInsufficientStock
	}
	return nil
}

// Upsert inserts or replaces a catalog item. Used by the seed and ingest
// tools; the serving path never writes anything but stock and sold.
func (r *CatalogRepository) Upsert(ctx context.Context, m merch.Merchandise) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO merchandise (id, name, unit_price, stock, sold, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     unit_price = EXCLUDED.unit_price,
		     stock = EXCLUDED.stock,
		     active = EXCLUDED.active`,
		m.ID, m.Name, m.UnitPrice, m.Stock, m.Sold, m.Active)
	if err != nil {
		return errors.Wrapf(err, "upsert merchandise %s", m.ID)
	}
	return nil
}
