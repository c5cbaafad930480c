package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tramline/merch-shop/internal/domain/cart"
	"github.com/tramline/merch-shop/internal/domain/identity"
	"github.com/tramline/merch-shop/internal/domain/merch"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// StockConflictError indicates that one or more cart lines can no longer be
// satisfied by current stock (another session bought the items first, or the
// merchandise was deactivated). No stock is mutated and the cart is left
// untouched so the caller can adjust and retry.
type StockConflictError struct {
	// Items lists the offending merchandise ids.
	Items []string
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for: %s", strings.Join(e.Items, ", "))
}

// PersistenceError reports that the order-history write failed after the
// stock decrement was already committed. The sale is final: callers must log
// the failure and still treat the checkout as successful (at-least-once
// recording, not two-phase commit).
type PersistenceError struct {
	OrderID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("record receipt %s: %v", e.OrderID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ReceiptLine is a snapshot of a committed cart line. UnitPrice is captured
// at commit time and never changes afterwards.
type ReceiptLine struct {
	MerchandiseID string
	Name          string
	Quantity      int
	UnitPrice     decimal.Decimal
}

// Receipt is the immutable record of a completed purchase.
type Receipt struct {
	OrderID   string
	UserID    string
	Lines     []ReceiptLine
	Total     decimal.Decimal
	CreatedAt time.Time
}

// History records committed receipts for the order history.
type History interface {
	Record(ctx context.Context, r *Receipt) error
}

// Processor transitions a non-empty, stock-valid cart into a committed order.
//
// The revalidate-then-commit sequence runs under a mutual-exclusion section
// keyed by the affected merchandise ids, so two concurrent checkouts cannot
// both observe sufficient stock and both decrement past zero.
type Processor struct {
	catalog merch.Catalog
	history History
	locks   keyedMutex

	now   func() time.Time
	newID func() string
}

// NewProcessor creates a Processor over the given catalog and history sink.
func NewProcessor(catalog merch.Catalog, history History) *Processor {
	return &Processor{
		catalog: catalog,
		history: history,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Checkout validates the cart against live stock and commits the order.
//
// On success the stock is decremented, the cart is cleared, and the receipt
// is returned. When the order-history write fails the receipt is returned
// together with a *PersistenceError: the sale stands, only the record is
// missing. All other errors leave cart and stock untouched.
func (p *Processor) Checkout(ctx context.Context, c *cart.Store, session *identity.Session) (*Receipt, error) {
	if c.LineCount() == 0 {
		return nil, ErrEmptyCart
	}
	if session == nil {
		return nil, ErrNotAuthenticated
	}

	lines := c.Lines()
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.MerchandiseID
	}

	unlock := p.locks.lock(ids)
	defer unlock()

	// Revalidate every line against live stock. Price changes since the last
	// display are recomputed, not rejected — only stock is a conflict.
	items := make([]*merch.Merchandise, len(lines))
	var conflicts []string
	for i, l := range lines {
		m, err := p.catalog.Lookup(ctx, l.MerchandiseID)
		if err != nil {
			if errors.Is(err, merch.ErrNotFound) {
				conflicts = append(conflicts, l.MerchandiseID)
				continue
			}
			return nil, errors.Wrapf(err, "lookup merchandise %s", l.MerchandiseID)
		}
		// A deactivated item is a conflict with remaining quantity 0.
		if !m.Active || l.Quantity > m.Stock {
			conflicts = append(conflicts, l.MerchandiseID)
			continue
		}
		items[i] = m
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return nil, &StockConflictError{Items: conflicts}
	}

	// Commit: decrement stock per line. Validation passed under the lock, so
	// a failure here is a catalog fault, not a race; already-applied
	// decrements are compensated before returning.
	for i, l := range lines {
		if err := p.catalog.AdjustStock(ctx, l.MerchandiseID, -l.Quantity); err != nil {
			for j := range i {
				_ = p.catalog.AdjustStock(ctx, lines[j].MerchandiseID, lines[j].Quantity)
			}
			return nil, errors.Wrapf(err, "deduct stock for %s", l.MerchandiseID)
		}
	}

	r := &Receipt{
		OrderID:   p.newID(),
		UserID:    session.UserID,
		Lines:     make([]ReceiptLine, len(lines)),
		CreatedAt: p.now(),
	}
	total := decimal.Zero
	for i, l := range lines {
		r.Lines[i] = ReceiptLine{
			MerchandiseID: l.MerchandiseID,
			Name:          items[i].Name,
			Quantity:      l.Quantity,
			UnitPrice:     items[i].UnitPrice,
		}
		total = total.Add(items[i].UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	r.Total = total.Round(2)

	c.Clear()

	if err := p.history.Record(ctx, r); err != nil {
		return r, &PersistenceError{OrderID: r.OrderID, Err: err}
	}

	return r, nil
}
