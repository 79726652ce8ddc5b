package repository

import (
	"context"

	"universitas/internal/domain/entity"
)

type FrontpageRepository interface {
	// Frontpage lists placed teasers by position, then publication date.
	Frontpage(ctx context.Context, frontpage string, limit int) ([]entity.FrontpageItem, error)
	ListStories(ctx context.Context, query string, offset, limit int) ([]*entity.FrontpageStory, error)
	// GetStory returns (nil, nil) if the teaser does not exist.
	GetStory(ctx context.Context, id int64) (*entity.FrontpageStory, error)
	CountForStory(ctx context.Context, storyID int64) (int64, error)
	CreateStory(ctx context.Context, fs *entity.FrontpageStory) error
	UpdateStory(ctx context.Context, fs *entity.FrontpageStory) error
	DeleteStory(ctx context.Context, id int64) error
	// GetBlock returns (nil, nil) if the block does not exist.
	GetBlock(ctx context.Context, id int64) (*entity.Contentblock, error)
	CreateBlock(ctx context.Context, block *entity.Contentblock) error
	UpdateBlock(ctx context.Context, block *entity.Contentblock) error
}
