// Package issue serves the /issues endpoints.
package issue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/auth"
	"universitas/internal/handler/http/pathutil"
	"universitas/internal/handler/http/respond"
	issueUC "universitas/internal/usecase/issue"
)

// Service is the part of the issue use case served over HTTP.
type Service interface {
	List(ctx context.Context, year int) ([]*entity.PrintIssue, error)
	Get(ctx context.Context, id int64) (*entity.PrintIssue, error)
	Latest(ctx context.Context) (*entity.PrintIssue, error)
	Create(ctx context.Context, in issueUC.Input) (*entity.PrintIssue, error)
	Update(ctx context.Context, id int64, in issueUC.Input) (*entity.PrintIssue, error)
	Delete(ctx context.Context, id int64) error
}

// Register adds the issue routes to mux.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("GET /issues", ListHandler{svc})
	mux.Handle("GET /issues/latest", LatestHandler{svc})
	mux.Handle("GET /issues/{id}", GetHandler{svc})
	mux.Handle("POST /issues", auth.Authz(CreateHandler{svc}))
	mux.Handle("PUT /issues/{id}", auth.Authz(UpdateHandler{svc}))
	mux.Handle("DELETE /issues/{id}", auth.Authz(DeleteHandler{svc}))
}

const dateLayout = "2006-01-02"

type DTO struct {
	ID              int64  `json:"id"`
	IssueNumber     string `json:"issue_number"`
	PublicationDate string `json:"publication_date"`
	Pages           int    `json:"pages"`
	PDF             string `json:"pdf,omitempty"`
	CoverPage       string `json:"cover_page,omitempty"`
}

func toDTO(p *entity.PrintIssue) DTO {
	return DTO{
		ID:              p.ID,
		IssueNumber:     p.IssueNumber,
		PublicationDate: p.PublicationDate.Format(dateLayout),
		Pages:           p.Pages,
		PDF:             p.PDF,
		CoverPage:       p.CoverPage,
	}
}

type issueRequest struct {
	IssueNumber     string `json:"issue_number"`
	PublicationDate string `json:"publication_date"`
	Pages           int    `json:"pages"`
	PDF             string `json:"pdf"`
	CoverPage       string `json:"cover_page"`
}

func (r issueRequest) input() (issueUC.Input, error) {
	in := issueUC.Input{
		IssueNumber: r.IssueNumber,
		Pages:       r.Pages,
		PDF:         r.PDF,
		CoverPage:   r.CoverPage,
	}
	if r.PublicationDate != "" {
		d, err := time.Parse(dateLayout, r.PublicationDate)
		if err != nil {
			return in, &entity.ValidationError{Field: "publication_date", Message: "must be a date like 2026-03-04"}
		}
		in.PublicationDate = d
	}
	return in, nil
}

func decode(r *http.Request) (issueUC.Input, error) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return issueUC.Input{}, errors.New("invalid request body")
	}
	return req.input()
}

// statusFor maps use case errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, issueUC.ErrInvalidIssueID), errors.Is(err, entity.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, issueUC.ErrIssueNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type ListHandler struct{ Svc Service }

// ServeHTTP lists issues, optionally of one year.
//
//	GET /issues?year=2026
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var year int
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1900 || n > 9999 {
			respond.SafeError(w, http.StatusBadRequest, errors.New("invalid query parameter: year"))
			return
		}
		year = n
	}
	issues, err := h.Svc.List(r.Context(), year)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	out := make([]DTO, 0, len(issues))
	for _, p := range issues {
		out = append(out, toDTO(p))
	}
	respond.JSON(w, http.StatusOK, out)
}

type LatestHandler struct{ Svc Service }

func (h LatestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Latest(r.Context())
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(p))
}

type GetHandler struct{ Svc Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(p))
}

type CreateHandler struct{ Svc Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	in, err := decode(r)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(p))
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
	p, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(p))
}

type DeleteHandler struct{ Svc Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.PathID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
