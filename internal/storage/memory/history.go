package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/tramline/merch-shop/internal/domain/checkout"
)

var _ checkout.History = (*History)(nil)

// History keeps committed receipts in memory, in commit order.
type History struct {
	mu       sync.RWMutex
	receipts []*checkout.Receipt
	byID     map[string]struct{}
}

// NewHistory creates an empty order history.
func NewHistory() *History {
	return &History{byID: make(map[string]struct{})}
}

// Record appends the receipt. Order ids are unique by construction; a
// duplicate indicates a caller bug and is rejected.
func (h *History) Record(_ context.Context, r *checkout.Receipt) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.byID[r.OrderID]; ok {
		return errors.Errorf("duplicate order id %s", r.OrderID)
	}
	h.byID[r.OrderID] = struct{}{}
	h.receipts = append(h.receipts, r)
	return nil
}

// ByUser returns the receipts recorded for the given user, oldest first.
func (h *History) ByUser(_ context.Context, userID string) ([]*checkout.Receipt, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*checkout.Receipt
	for _, r := range h.receipts {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}
