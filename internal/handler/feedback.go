package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/tramline/merch-shop/internal/domain/feedback"
)

type feedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// submitFeedback records a feedback form submission. No login is required,
// matching the original site's open feedback form.
func (h *Handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.feedback.Submit(r.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, feedback.ErrEmptyMessage),
			errors.Is(err, feedback.ErrMessageTooLong),
			errors.Is(err, feedback.ErrInvalidEmail):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			internalError(w, r, err)
		}
		return
	}

	writeObj(w, http.StatusAccepted, func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str("received") })
		e.Field("id", func(e *jx.Encoder) { e.Str(entry.ID) })
	})
}
