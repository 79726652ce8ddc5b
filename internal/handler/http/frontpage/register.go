// Package frontpage serves the frontpage listing and the editing of
// teasers and their content blocks.
package frontpage

import (
	"context"
	"net/http"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/auth"
	frontpageUC "universitas/internal/usecase/frontpage"
)

// Service is the part of the frontpage use case served over HTTP.
type Service interface {
	Frontpage(ctx context.Context, name string, limit int) ([]entity.FrontpageItem, error)
	ListStories(ctx context.Context, query string, params pagination.Params) ([]*entity.FrontpageStory, error)
	GetStory(ctx context.Context, id int64) (*entity.FrontpageStory, error)
	CreateStory(ctx context.Context, in frontpageUC.TeaserInput) (*entity.FrontpageStory, error)
	UpdateStory(ctx context.Context, id int64, in frontpageUC.TeaserInput) (*entity.FrontpageStory, error)
	DeleteStory(ctx context.Context, id int64) error
	CreateBlock(ctx context.Context, teaserID int64, in frontpageUC.BlockInput) (*entity.Contentblock, error)
	UpdateBlock(ctx context.Context, id int64, in frontpageUC.BlockInput) (*entity.Contentblock, error)
}

// Register adds the frontpage routes to mux.
func Register(mux *http.ServeMux, svc Service, cfg pagination.Config) {
	mux.Handle("GET /frontpage", FrontpageHandler{svc})
	mux.Handle("GET /frontpage/stories", ListStoriesHandler{Svc: svc, PaginationCfg: cfg})
	mux.Handle("GET /frontpage/stories/{id}", GetStoryHandler{svc})

	mux.Handle("POST /frontpage/stories", auth.Authz(CreateStoryHandler{svc}))
	mux.Handle("PUT /frontpage/stories/{id}", auth.Authz(UpdateStoryHandler{svc}))
	mux.Handle("DELETE /frontpage/stories/{id}", auth.Authz(DeleteStoryHandler{svc}))
	mux.Handle("POST /frontpage/stories/{id}/blocks", auth.Authz(CreateBlockHandler{svc}))
	mux.Handle("PUT /frontpage/blocks/{id}", auth.Authz(UpdateBlockHandler{svc}))
}
