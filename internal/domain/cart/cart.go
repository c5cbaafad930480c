package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/tramline/merch-shop/internal/domain/merch"
)

// Sentinel errors for cart mutations.
var (
	// ErrItemUnavailable is returned when the referenced merchandise does not
	// exist in the catalog or has been deactivated.
	ErrItemUnavailable = errors.New("item unavailable")
	// ErrStockExhausted is returned when the line is already at the stock
	// ceiling and nothing more can be added. No mutation is performed.
	ErrStockExhausted = errors.New("stock exhausted")
	// ErrInvalidQuantity is returned for non-positive quantities. Callers
	// should use RemoveItem instead of setting a quantity to zero.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Line is a single purchase intent: a merchandise id and how many units of it.
// A cart never holds two lines for the same merchandise id.
type Line struct {
	MerchandiseID string
	Quantity      int
}

// Result reports the outcome of a successful cart mutation. Limited is set
// when the requested quantity exceeded the current stock and the line was
// clamped to the stock ceiling — the mutation still succeeded, but the caller
// should surface the limitation to the user.
type Result struct {
	Line    Line
	Limited bool
}

// Store holds the pending purchases for one session, in insertion order.
//
// A Store belongs to exactly one session and is mutated only by that
// session's own requests, so it performs no internal locking. It consults the
// catalog for stock ceilings and current prices but never mutates it.
type Store struct {
	catalog merch.Catalog
	lines   []Line
}

// NewStore creates an empty cart backed by the given catalog.
func NewStore(catalog merch.Catalog) *Store {
	return &Store{catalog: catalog}
}

// AddItem adds qty units of the given merchandise to the cart, merging into
// an existing line when present. The resulting quantity is clamped to the
// item's current stock; a clamped add succeeds with Result.Limited set. When
// the line is already at the stock ceiling (or the item is out of stock),
// AddItem fails with ErrStockExhausted and leaves the cart untouched.
func (s *Store) AddItem(ctx context.Context, id string, qty int) (Result, error) {
	if qty <= 0 {
		return Result{}, ErrInvalidQuantity
	}

	m, err := s.lookup(ctx, id)
	if err != nil {
		return Result{}, err
	}

	current := 0
	if l := s.find(id); l != nil {
		current = l.Quantity
	}
	if current >= m.Stock {
		return Result{}, ErrStockExhausted
	}

	want := current + qty
	limited := false
	if want > m.Stock {
		want = m.Stock
		limited = true
	}

	line := s.set(id, want)
	return Result{Line: line, Limited: limited}, nil
}

// UpdateQuantity sets the line's quantity, subject to the same stock-ceiling
// clamp as AddItem. Updating an id that is not yet in the cart creates the
// line. Quantities below 1 are rejected with ErrInvalidQuantity.
func (s *Store) UpdateQuantity(ctx context.Context, id string, qty int) (Result, error) {
	if qty <= 0 {
		return Result{}, ErrInvalidQuantity
	}

	m, err := s.lookup(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if m.Stock == 0 {
		return Result{}, ErrStockExhausted
	}

	limited := false
	if qty > m.Stock {
		qty = m.Stock
		limited = true
	}

	line := s.set(id, qty)
	return Result{Line: line, Limited: limited}, nil
}

// RemoveItem removes the line for the given merchandise id. Removing an id
// that is not in the cart is a no-op.
func (s *Store) RemoveItem(id string) {
	for i := range s.lines {
		if s.lines[i].MerchandiseID == id {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

// LineCount returns the number of distinct lines (for the cart badge), not
// the total number of units.
func (s *Store) LineCount() int {
	return len(s.lines)
}

// TotalUnits returns the sum of all line quantities.
func (s *Store) TotalUnits() int {
	total := 0
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice computes the display total: Σ quantity × current unit price,
// rounded to 2 decimal places. Prices are read from the catalog at call time,
// never cached, so a price change is reflected on the next computation.
func (s *Store) TotalPrice(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, l := range s.lines {
		m, err := s.lookup(ctx, l.MerchandiseID)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(m.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2), nil
}

// Lines returns a copy of the cart's lines in insertion order.
func (s *Store) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Clear empties the cart. Clearing an empty cart is a no-op.
func (s *Store) Clear() {
	s.lines = s.lines[:0]
}

// lookup fetches the merchandise and maps missing or inactive items to
// ErrItemUnavailable.
func (s *Store) lookup(ctx context.Context, id string) (*merch.Merchandise, error) {
	m, err := s.catalog.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, merch.ErrNotFound) {
			return nil, ErrItemUnavailable
		}
		return nil, errors.Wrapf(err, "lookup merchandise %s", id)
	}
	if !m.Active {
		return nil, ErrItemUnavailable
	}
	return m, nil
}

// find returns a pointer to the line with the given id, or nil.
func (s *Store) find(id string) *Line {
	for i := range s.lines {
		if s.lines[i].MerchandiseID == id {
			return &s.lines[i]
		}
	}
	return nil
}

// set updates the line's quantity, appending a new line when absent, and
// returns a copy of the resulting line.
func (s *Store) set(id string, qty int) Line {
	if l := s.find(id); l != nil {
		l.Quantity = qty
		return *l
	}
	s.lines = append(s.lines, Line{MerchandiseID: id, Quantity: qty})
	return s.lines[len(s.lines)-1]
}
