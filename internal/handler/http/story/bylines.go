package story

import (
	"encoding/json"
	"errors"
	"net/http"

	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/pathutil"
	"universitas/internal/handler/http/respond"
)

type BylinesHandler struct{ Svc Service }

// ServeHTTP replaces the bylines of a story.
//
//	PUT /stories/{id}/bylines [{"contributor_id": 3, "credit": "by", "title": "journalist"}]
func (h BylinesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req []BylineDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	bylines := make([]entity.Byline, 0, len(req))
	for _, b := range req {
		credit := entity.Credit(b.Credit)
		if credit == "" {
			credit = entity.CreditWriter
		}
		bylines = append(bylines, entity.Byline{
			ContributorID: b.ContributorID,
			Credit:        credit,
			Title:         b.Title,
		})
	}
	s, err := h.Svc.SetBylines(r.Context(), id, bylines)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(s))
}

type AddImageHandler struct{ Svc Service }

// ServeHTTP attaches an image to a story.
//
//	POST /stories/{id}/images {"image_id": 7, "caption": "...", "top": true}
func (h AddImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req struct {
		ImageID int64  `json:"image_id"`
		Caption string `json:"caption"`
		Top     bool   `json:"top"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if err := h.Svc.AddImage(r.Context(), id, req.ImageID, req.Caption, req.Top); err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.NoContent(w)
}
