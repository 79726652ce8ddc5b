package imagefile

import (
	"encoding/json"
	"errors"
	"net/http"

	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/pathutil"
	"universitas/internal/handler/http/respond"
)

type UpdateHandler struct{ Svc Service }

// ServeHTTP edits an image. crop_box may be an object or a JSON encoded
// string; a changed box marks the crop as manual.
func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			respond.SafeError(w, http.StatusBadRequest, ve)
			return
		}
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	in, err := req.input()
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	img, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(h.Svc, img))
}
