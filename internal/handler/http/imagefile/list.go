package imagefile

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/requestid"
	"universitas/internal/handler/http/respond"
	"universitas/internal/observability/logging"
	"universitas/internal/repository"
	photoUC "universitas/internal/usecase/photo"
)

type ListHandler struct {
	Svc           Service
	PaginationCfg pagination.Config
	Logger        *slog.Logger
}

// ServeHTTP lists images, newest first.
//
//	GET /images?page=1&limit=25&profile_images=false&method=1&q=portrett
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listing := pagination.Observe(logging.WithRequestID(ctx, h.Logger), "images", requestid.FromContext(ctx))

	params, err := pagination.ParseQueryParams(r, h.PaginationCfg)
	if err != nil {
		listing.Invalid(err)
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	filter, err := parseFilter(r)
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
	dtos := toDTOs(h.Svc, result.Data)
	listing.Done(params, len(dtos), result.Pagination.Total)

	respond.JSON(w, http.StatusOK, pagination.NewResponse(dtos, result.Pagination))
}

func parseFilter(r *http.Request) (repository.ImageFilter, error) {
	q := r.URL.Query()
	f := repository.ImageFilter{
		Categories: photoUC.ParseProfileFilter(q.Get("profile_images")),
		Query:      strings.TrimSpace(q.Get("q")),
	}
	if v := q.Get("method"); v != "" {
		n, err := strconv.Atoi(v)
		method := entity.CroppingMethod(n)
		if err != nil || !method.Valid() {
			return f, errors.New("invalid query parameter: unknown cropping method")
		}
		f.Method = &method
	}
	return f, nil
}
