package imagefile

import (
	"encoding/json"
	"errors"
	"net/http"

	"universitas/internal/handler/http/pathutil"
	"universitas/internal/handler/http/respond"
)

type mergeRequest struct {
	IDs []int64 `json:"ids"`
}

type MergeHandler struct{ Svc Service }

// ServeHTTP replaces the images in ids with the one in the path.
//
//	POST /images/{id}/merge {"ids":[12,13]}
func (h MergeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	img, err := h.Svc.Merge(r.Context(), id, req.IDs)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(h.Svc, img))
}
