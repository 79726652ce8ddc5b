// Package story serves the /stories endpoints.
package story

import (
	"context"
	"log/slog"
	"net/http"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/auth"
	"universitas/internal/handler/http/middleware"
	"universitas/internal/repository"
	storyUC "universitas/internal/usecase/story"
)

// Service is the part of the story use case served over HTTP.
type Service interface {
	List(ctx context.Context, filter repository.StoryFilter, params pagination.Params) (*storyUC.PaginatedResult, error)
	Get(ctx context.Context, id int64) (*entity.Story, error)
	Create(ctx context.Context, in storyUC.Input) (*entity.Story, error)
	Update(ctx context.Context, id int64, in storyUC.Input) (*entity.Story, error)
	Delete(ctx context.Context, id int64) error
	SetBylines(ctx context.Context, id int64, bylines []entity.Byline) (*entity.Story, error)
	AddImage(ctx context.Context, storyID, imageID int64, caption string, top bool) error
	Search(ctx context.Context, query string, limit int) ([]repository.RankedStory, error)
	VisitPage(ctx context.Context, id int64, ip, userAgent string) (bool, error)
}

// Deps holds what Register needs besides the service.
type Deps struct {
	Pagination   pagination.Config
	VisitLimiter *middleware.RateLimiter // optional
	IPExtractor  middleware.IPExtractor  // defaults to RemoteAddr
	Logger       *slog.Logger
}

// Register adds the story routes to mux. Reads and visits are public,
// everything else requires a token.
func Register(mux *http.ServeMux, svc Service, deps Deps) {
	if deps.IPExtractor == nil {
		deps.IPExtractor = middleware.RemoteAddrExtractor{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	mux.Handle("GET /stories", ListHandler{Svc: svc, PaginationCfg: deps.Pagination, Logger: deps.Logger})
	mux.Handle("GET /stories/search", SearchHandler{svc})
	mux.Handle("GET /stories/{id}", GetHandler{svc})

	var visit http.Handler = VisitHandler{Svc: svc, IPs: deps.IPExtractor}
	if deps.VisitLimiter != nil {
		visit = deps.VisitLimiter.Middleware(visit)
	}
	mux.Handle("POST /stories/{id}/visit", visit)

	mux.Handle("POST /stories", auth.Authz(CreateHandler{svc}))
	mux.Handle("PUT /stories/{id}", auth.Authz(UpdateHandler{svc}))
	mux.Handle("DELETE /stories/{id}", auth.Authz(DeleteHandler{svc}))
	mux.Handle("PUT /stories/{id}/bylines", auth.Authz(BylinesHandler{svc}))
	mux.Handle("POST /stories/{id}/images", auth.Authz(AddImageHandler{svc}))
}
