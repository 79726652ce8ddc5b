package frontpage

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"universitas/internal/common/pagination"
	"universitas/internal/handler/http/pathutil"
	"universitas/internal/handler/http/respond"
)

const (
	defaultFrontpageLimit = 50
	maxFrontpageLimit     = 200
)

var errInvalidBody = errors.New("invalid request body")

type FrontpageHandler struct{ Svc Service }

// ServeHTTP lists the placed teasers of a frontpage.
//
//	GET /frontpage?name=main&limit=50
func (h FrontpageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := defaultFrontpageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxFrontpageLimit {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("invalid query parameter: limit must be between 1 and 200"))
			return
		}
		limit = n
	}
	items, err := h.Svc.Frontpage(r.Context(), r.URL.Query().Get("name"), limit)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	out := make([]ItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, ItemDTO{Block: toBlockDTO(it.Block), Teaser: toTeaserDTO(&it.Story)})
	}
	respond.JSON(w, http.StatusOK, out)
}

type ListStoriesHandler struct {
	Svc           Service
	PaginationCfg pagination.Config
}

// ServeHTTP searches teasers.
//
//	GET /frontpage/stories?q=rektor&page=1&limit=20
func (h ListStoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	teasers, err := h.Svc.ListStories(r.Context(), r.URL.Query().Get("q"), params)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	out := make([]TeaserDTO, 0, len(teasers))
	for _, fs := range teasers {
		out = append(out, toTeaserDTO(fs))
	}
	respond.JSON(w, http.StatusOK, out)
}

type GetStoryHandler struct{ Svc Service }

func (h GetStoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	fs, err := h.Svc.GetStory(r.Context(), id)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toTeaserDTO(fs))
}

type CreateStoryHandler struct{ Svc Service }

func (h CreateStoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req teaserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	fs, err := h.Svc.CreateStory(r.Context(), req.input())
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, toTeaserDTO(fs))
}

type UpdateStoryHandler struct{ Svc Service }

func (h UpdateStoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req teaserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	fs, err := h.Svc.UpdateStory(r.Context(), id, req.input())
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toTeaserDTO(fs))
}

type DeleteStoryHandler struct{ Svc Service }

func (h DeleteStoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.DeleteStory(r.Context(), id); err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type CreateBlockHandler struct{ Svc Service }

// ServeHTTP places the teaser in the path on a frontpage.
func (h CreateBlockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	cb, err := h.Svc.CreateBlock(r.Context(), id, req.input())
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, toBlockDTO(*cb))
}

type UpdateBlockHandler struct{ Svc Service }

func (h UpdateBlockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	cb, err := h.Svc.UpdateBlock(r.Context(), id, req.input())
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toBlockDTO(*cb))
}
