// Package contributor serves the /contributors endpoints.
package contributor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/auth"
	"universitas/internal/handler/http/pathutil"
	"universitas/internal/handler/http/respond"
	contribUC "universitas/internal/usecase/contributor"
)

// Service is the part of the contributor use case served over HTTP.
type Service interface {
	List(ctx context.Context, params pagination.Params) ([]*entity.Contributor, error)
	Search(ctx context.Context, name string) ([]*entity.Contributor, error)
	Get(ctx context.Context, id int64) (*entity.Contributor, error)
	Create(ctx context.Context, in contribUC.Input) (*entity.Contributor, error)
	Update(ctx context.Context, id int64, in contribUC.Input) (*entity.Contributor, error)
}

// Register adds the contributor routes to mux. Contact details are only
// shown to authenticated users, so every route requires a token.
func Register(mux *http.ServeMux, svc Service, cfg pagination.Config) {
	mux.Handle("GET /contributors", auth.Authz(ListHandler{Svc: svc, PaginationCfg: cfg}))
	mux.Handle("GET /contributors/{id}", auth.Authz(GetHandler{svc}))
	mux.Handle("POST /contributors", auth.Authz(CreateHandler{svc}))
	mux.Handle("PUT /contributors/{id}", auth.Authz(UpdateHandler{svc}))
}

type DTO struct {
	ID             int64  `json:"id"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Active         bool   `json:"active"`
	ProfileImageID *int64 `json:"profile_image"`
}

func toDTO(c *entity.Contributor) DTO {
	return DTO{
		ID:             c.ID,
		DisplayName:    c.DisplayName,
		Email:          c.Email,
		Phone:          c.Phone,
		Active:         c.Active,
		ProfileImageID: c.ProfileImageID,
	}
}

func toDTOs(list []*entity.Contributor) []DTO {
	out := make([]DTO, 0, len(list))
	for _, c := range list {
		out = append(out, toDTO(c))
	}
	return out
}

type contributorRequest struct {
	DisplayName    string `json:"display_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Active         *bool  `json:"active"`
	ProfileImageID *int64 `json:"profile_image"`
}

func decode(r *http.Request) (contribUC.Input, error) {
	var req contributorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return contribUC.Input{}, errors.New("invalid request body")
	}
	in := contribUC.Input{
		DisplayName:    req.DisplayName,
		Email:          req.Email,
		Phone:          req.Phone,
		Active:         true,
		ProfileImageID: req.ProfileImageID,
	}
	if req.Active != nil {
		in.Active = *req.Active
	}
	return in, nil
}

// statusFor maps use case errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, contribUC.ErrInvalidContributorID), errors.Is(err, entity.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, contribUC.ErrContributorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type ListHandler struct {
	Svc           Service
	PaginationCfg pagination.Config
}

// ServeHTTP lists contributors by name, or searches them when q is set.
//
//	GET /contributors?page=1&limit=20
//	GET /contributors?q=nordmann
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		list, err := h.Svc.Search(r.Context(), q)
		if err != nil {
			respond.SafeError(w, statusFor(err), err)
			return
		}
		respond.JSON(w, http.StatusOK, toDTOs(list))
		return
	}
	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := h.Svc.List(r.Context(), params)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTOs(list))
}

type GetHandler struct{ Svc Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(c))
}

type CreateHandler struct{ Svc Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	in, err := decode(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(c))
}

type UpdateHandler struct{ Svc Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	in, err := decode(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(c))
}
