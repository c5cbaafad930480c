package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/tramline/merch-shop/internal/domain/cart"
)

type addItemRequest struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeCart(w, r, h.carts.Cart(sess.Token), false)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c := h.carts.Cart(sess.Token)
	res, err := c.AddItem(r.Context(), req.MerchandiseID, req.Quantity)
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	h.writeCart(w, r, c, res.Limited)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := h.carts.Cart(sess.Token)
	res, err := c.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeCartError(w, r, err)
		return
	}
	h.writeCart(w, r, c, res.Limited)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	c := h.carts.Cart(sess.Token)
	c.RemoveItem(chi.URLParam(r, "id"))
	h.writeCart(w, r, c, false)
}

// writeCart renders the cart summary the storefront needs: the lines, the
// badge count, total units, and the display total.
func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, c *cart.Store, limited bool) {
	total, err := c.TotalPrice(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}

	writeObj(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range c.Lines() {
					e.Obj(func(e *jx.Encoder) {
						e.Field("merchandiseId", func(e *jx.Encoder) { e.Str(l.MerchandiseID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
					})
				}
			})
		})
		e.Field("lineCount", func(e *jx.Encoder) { e.Int(c.LineCount()) })
		e.Field("totalUnits", func(e *jx.Encoder) { e.Int(c.TotalUnits()) })
		e.Field("totalPrice", func(e *jx.Encoder) { e.Str(total.StringFixed(2)) })
		if limited {
			e.Field("limited", func(e *jx.Encoder) { e.Bool(true) })
		}
	})
}

func writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrItemUnavailable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, cart.ErrStockExhausted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		internalError(w, r, err)
	}
}
