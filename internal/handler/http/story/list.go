package story

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/requestid"
	"universitas/internal/handler/http/respond"
	"universitas/internal/observability/logging"
	"universitas/internal/repository"
)

type ListHandler struct {
	Svc           Service
	PaginationCfg pagination.Config
	Logger        *slog.Logger
	Now           func() time.Time
}

// ServeHTTP lists stories, newest first.
//
//	GET /stories?page=1&limit=25&status=10&issue=3&published=true
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listing := pagination.Observe(logging.WithRequestID(ctx, h.Logger), "stories", requestid.FromContext(ctx))

	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		listing.Invalid(err)
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	filter, err := h.parseFilter(r)
	if err != nil {
		listing.Invalid(err)
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := h.Svc.List(ctx, filter, params)
	if err != nil {
		listing.Failed(params, err)
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	dtos := make([]DTO, 0, len(result.Data))
	for _, s := range result.Data {
		dtos = append(dtos, toDTO(s))
	}
	listing.Done(params, len(dtos), result.Pagination.Total)

	respond.JSON(w, http.StatusOK, pagination.NewResponse(dtos, result.Pagination))
}

func (h ListHandler) parseFilter(r *http.Request) (repository.StoryFilter, error) {
	var f repository.StoryFilter
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		n, err := strconv.Atoi(v)
		status := entity.PublicationStatus(n)
		if err != nil || !status.Valid() {
			return f, errors.New("invalid query parameter: unknown status")
		}
		f.Status = &status
	}
	if v := q.Get("issue"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, errors.New("invalid query parameter: issue must be a positive integer")
		}
		f.IssueID = &id
	}
	if v := q.Get("published"); v != "" {
		published, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("invalid query parameter: published must be a boolean")
		}
		if published {
			now := time.Now()
			if h.Now != nil {
				now = h.Now()
			}
			f.PublishedAt = &now
		}
	}
	return f, nil
}
