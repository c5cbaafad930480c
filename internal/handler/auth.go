package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/tramline/merch-shop/internal/domain/identity"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	h.issueSession(w, r, h.identity.Register)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	h.issueSession(w, r, h.identity.Login)
}

func (h *Handler) issueSession(
	w http.ResponseWriter,
	r *http.Request,
	issue func(ctx context.Context, email, password string) (*identity.Session, error),
) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := issue(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrWeakPassword):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, identity.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, err.Error())
		default:
			internalError(w, r, err)
		}
		return
	}

	writeObj(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("token", func(e *jx.Encoder) { e.Str(sess.Token) })
		e.Field("userId", func(e *jx.Encoder) { e.Str(sess.UserID) })
		e.Field("expiresAt", func(e *jx.Encoder) { e.Str(sess.ExpiresAt.Format(time.RFC3339)) })
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	h.carts.Drop(sess.Token)
	if err := h.identity.Logout(r.Context(), sess.Token); err != nil {
		internalError(w, r, err)
		return
	}

	writeObj(w, http.StatusOK, func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str("logged out") })
	})
}
