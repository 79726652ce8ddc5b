package story

import (
	"encoding/json"
	"errors"
	"net/http"

	"universitas/internal/handler/http/respond"
)

type CreateHandler struct{ Svc Service }

// ServeHTTP creates a story. New stories also get a frontpage teaser.
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req storyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	s, err := h.Svc.Create(r.Context(), req.input())
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(s))
}
