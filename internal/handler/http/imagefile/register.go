// Package imagefile serves the /images endpoints.
package imagefile

import (
	"context"
	"log/slog"
	"net/http"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/auth"
	"universitas/internal/infra/imageproc"
	"universitas/internal/repository"
	photoUC "universitas/internal/usecase/photo"
)

// Service is the part of the photo use case served over HTTP.
type Service interface {
	List(ctx context.Context, filter repository.ImageFilter, params pagination.Params) (*photoUC.PaginatedResult, error)
	Get(ctx context.Context, id int64) (*entity.ImageFile, error)
	Upload(ctx context.Context, filename string, data []byte, category entity.ImageCategory) (*entity.ImageFile, error)
	Update(ctx context.Context, id int64, in photoUC.UpdateInput) (*entity.ImageFile, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, q photoUC.SearchQuery) ([]*entity.ImageFile, error)
	FilenameSearch(ctx context.Context, name string, similarity float64) ([]*entity.ImageFile, error)
	Similar(ctx context.Context, id int64, field repository.SimilarField, minutes int) ([]*entity.ImageFile, error)
	Merge(ctx context.Context, keep int64, others []int64) (*entity.ImageFile, error)
	URL(img *entity.ImageFile) string
	ThumbnailURL(img *entity.ImageFile, size imageproc.Size) string
}

// Deps holds what Register needs besides the service.
type Deps struct {
	Pagination    pagination.Config
	MaxUploadSize int64 // defaults to DefaultMaxUploadSize
	Logger        *slog.Logger
}

// Register adds the image routes to mux.
func Register(mux *http.ServeMux, svc Service, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxUploadSize <= 0 {
		deps.MaxUploadSize = DefaultMaxUploadSize
	}

	mux.Handle("GET /images", ListHandler{Svc: svc, PaginationCfg: deps.Pagination, Logger: deps.Logger})
	mux.Handle("GET /images/search", SearchHandler{svc})
	mux.Handle("GET /images/{id}", GetHandler{svc})
	mux.Handle("GET /images/{id}/similar", SimilarHandler{svc})

	mux.Handle("POST /images", auth.Authz(UploadHandler{Svc: svc, MaxSize: deps.MaxUploadSize}))
	mux.Handle("PUT /images/{id}", auth.Authz(UpdateHandler{svc}))
	mux.Handle("DELETE /images/{id}", auth.Authz(DeleteHandler{svc}))
	mux.Handle("POST /images/{id}/merge", auth.Authz(MergeHandler{svc}))
}
