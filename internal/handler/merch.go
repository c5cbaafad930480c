package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/tramline/merch-shop/internal/domain/merch"
)

// listMerch returns the catalog. Inactive items are listed but flagged, so
// the storefront can render them as unavailable.
func (h *Handler) listMerch(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.Arr(func(e *jx.Encoder) {
		for _, m := range items {
			encodeMerch(e, m)
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.Bytes())
}

func encodeMerch(e *jx.Encoder, m merch.Merchandise) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(m.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(m.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Str(m.UnitPrice.StringFixed(2)) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(m.Stock) })
		e.Field("sold", func(e *jx.Encoder) { e.Int(m.Sold) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(m.Active) })
	})
}
