package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/tramline/merch-shop/internal/domain/checkout"
)

// placeOrder runs checkout for the session's cart and renders the receipt or
// a typed failure the storefront can present.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	c := h.carts.Cart(sess.Token)
	receipt, err := h.checkout.Checkout(r.Context(), c, sess)
	if err != nil {
		var pe *checkout.PersistenceError
		if errors.As(err, &pe) {
			// The sale is committed; only the history record is missing.
			// Report and render the receipt anyway.
			zctx.From(r.Context()).Error("receipt not recorded",
				zap.String("order_id", pe.OrderID),
				zap.Error(pe),
			)
			writeReceipt(w, receipt)
			return
		}
		writeCheckoutError(w, r, err)
		return
	}

	writeReceipt(w, receipt)
}

func writeReceipt(w http.ResponseWriter, receipt *checkout.Receipt) {
	writeObj(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("orderId", func(e *jx.Encoder) { e.Str(receipt.OrderID) })
		e.Field("total", func(e *jx.Encoder) { e.Str(receipt.Total.StringFixed(2)) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range receipt.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("merchandiseId", func(e *jx.Encoder) { e.Str(l.MerchandiseID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { e.Str(l.UnitPrice.StringFixed(2)) })
					})
				}
			})
		})
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(receipt.CreatedAt.Format(time.RFC3339)) })
	})
}

func writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *checkout.StockConflictError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "your cart is empty")
	case errors.Is(err, checkout.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "login required")
	case errors.As(err, &conflict):
		writeObj(w, http.StatusConflict, func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusConflict) })
			e.Field("message", func(e *jx.Encoder) { e.Str("some items are no longer available in the requested quantity") })
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, id := range conflict.Items {
						e.Str(id)
					}
				})
			})
		})
	default:
		internalError(w, r, err)
	}
}
