package story

import (
	"errors"
	"net/http"
	"strconv"

	"universitas/internal/handler/http/respond"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type SearchHandler struct{ Svc Service }

// ServeHTTP ranks published stories matching q.
//
//	GET /stories/search?q=studentpolitikk&limit=20
func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSearchLimit {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("invalid query parameter: limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	hits, err := h.Svc.Search(r.Context(), q, limit)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toSearchDTOs(hits))
}
