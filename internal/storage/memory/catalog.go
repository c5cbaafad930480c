// Package memory provides in-memory implementations of the shop's storage
// interfaces. They back the demo mode (no database configured) and the unit
// tests; the postgres package provides the durable equivalents.
package memory

import (
	"context"
	"sync"

	"github.com/tramline/merch-shop/internal/domain/merch"
)

var _ merch.Catalog = (*Catalog)(nil)

// Catalog is an in-memory merch.Catalog. All operations are safe for
// concurrent use; AdjustStock is conditional and never lets stock go
// negative.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[string]*merch.Merchandise
	order []string
}

// NewCatalog creates a catalog pre-loaded with the given items. Item order is
// preserved by List.
func NewCatalog(items ...merch.Merchandise) *Catalog {
	c := &Catalog{byID: make(map[string]*merch.Merchandise, len(items))}
	for i := range items {
		it := items[i]
		c.byID[it.ID] = &it
		c.order = append(c.order, it.ID)
	}
	return c
}

// List returns all items in load order.
func (c *Catalog) List(_ context.Context) ([]merch.Merchandise, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]merch.Merchandise, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out, nil
}

// Lookup returns a snapshot of the item, or merch.ErrNotFound.
func (c *Catalog) Lookup(_ context.Context, id string) (*merch.Merchandise, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.byID[id]
	if !ok {
		return nil, merch.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

// AdjustStock applies delta to the item's stock. A negative delta is a sale
// and also increments the sold counter. A delta that would take stock below
// zero returns merch.ErrInsufficientStock without mutating anything.
func (c *Catalog) AdjustStock(_ context.Context, id string, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.byID[id]
	if !ok {
		return merch.ErrNotFound
	}
	if item.Stock+delta < 0 {
		return merch.ErrInsufficientStock
	}
	item.Stock += delta
	if delta < 0 {
		item.Sold -= delta
	}
	return nil
}

// SetActive flips an item's availability flag. Used by the demo admin page
// and by tests exercising deactivation conflicts.
func (c *Catalog) SetActive(id string, active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.byID[id]
	if !ok {
		return merch.ErrNotFound
	}
	item.Active = active
	return nil
}
