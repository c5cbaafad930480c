package merch

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// itemJSON is the wire form of a catalog item in seed files and ingest dumps.
type itemJSON struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
	Active bool            `json:"active"`
}

// ParseItems decodes a JSON array of catalog items, validating ids and prices.
func ParseItems(data []byte) ([]Merchandise, error) {
	var raw []itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse merchandise JSON")
	}

	items := make([]Merchandise, 0, len(raw))
	for _, r := range raw {
		m, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

// ParseItem decodes a single catalog item, one line of a JSONL ingest dump.
func ParseItem(data []byte) (Merchandise, error) {
	var r itemJSON
	if err := json.Unmarshal(data, &r); err != nil {
		return Merchandise{}, errors.Wrap(err, "parse merchandise JSON")
	}
	return r.toDomain()
}

func (r itemJSON) toDomain() (Merchandise, error) {
	if r.ID == "" {
		return Merchandise{}, errors.New("merchandise id required")
	}
	if r.Price.IsNegative() {
		return Merchandise{}, errors.Errorf("negative price for %s", r.ID)
	}
	if r.Stock < 0 {
		return Merchandise{}, errors.Errorf("negative stock for %s", r.ID)
	}
	return Merchandise{
		ID:        r.ID,
		Name:      r.Name,
		UnitPrice: r.Price,
		Stock:     r.Stock,
		Active:    r.Active,
	}, nil
}
