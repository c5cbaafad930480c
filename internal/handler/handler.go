// Package handler exposes the shop over HTTP: catalog listing, mock auth,
// the session cart, checkout, and the feedback form.
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/tramline/merch-shop/internal/domain/cart"
	"github.com/tramline/merch-shop/internal/domain/checkout"
	"github.com/tramline/merch-shop/internal/domain/feedback"
	"github.com/tramline/merch-shop/internal/domain/identity"
	"github.com/tramline/merch-shop/internal/domain/merch"
)

// CartProvider hands out the per-session cart. Carts are keyed by session
// token and live as long as the session does.
type CartProvider interface {
	Cart(token string) *cart.Store
	Drop(token string)
}

// Handler implements the shop's HTTP API, delegating business logic to the
// injected domain services.
type Handler struct {
	catalog  merch.Catalog
	identity *identity.Service
	carts    CartProvider
	checkout *checkout.Processor
	feedback *feedback.Service
}

// New constructs a Handler with the required domain dependencies.
func New(
	catalog merch.Catalog,
	identitySvc *identity.Service,
	carts CartProvider,
	processor *checkout.Processor,
	feedbackSvc *feedback.Service,
) *Handler {
	return &Handler{
		catalog:  catalog,
		identity: identitySvc,
		carts:    carts,
		checkout: processor,
		feedback: feedbackSvc,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/merch", h.listMerch)

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Post("/auth/logout", h.logout)

	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Put("/cart/items/{id}", h.updateItem)
	r.Delete("/cart/items/{id}", h.removeItem)

	r.Post("/checkout", h.placeOrder)
	r.Post("/feedback", h.submitFeedback)

	return r
}

// session resolves the bearer token on the request to an active session.
// It writes a 401 response and returns false when there is none.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*identity.Session, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, "login required")
		return nil, false
	}

	sess, err := h.identity.Resolve(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "login required")
		return nil, false
	}
	return sess, true
}

// writeObj encodes a JSON object response with the given status.
func writeObj(w http.ResponseWriter, status int, f func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	e.Obj(f)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError encodes the uniform {"code","message"} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeObj(w, status, func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
}

// internalError logs err and responds with an opaque 500.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("internal error",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}
